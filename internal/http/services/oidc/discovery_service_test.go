package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtx "github.com/packlane/authd/internal/jwt"
)

func TestDiscovery(t *testing.T) {
	key, err := jwtx.GenerateSigningKey()
	require.NoError(t, err)
	signer := jwtx.NewIssuer("https://auth.packlane.dev", key)

	s := NewDiscoveryService("https://auth.packlane.dev/", signer)
	md := s.Discovery()

	assert.Equal(t, "https://auth.packlane.dev", md.Issuer)
	assert.Equal(t, "https://auth.packlane.dev/oauth2/token", md.TokenEndpoint)
	assert.Equal(t, "https://auth.packlane.dev/.well-known/jwks.json", md.JWKSURI)
	assert.Contains(t, md.GrantTypesSupported, "web")
	assert.Contains(t, md.GrantTypesSupported, "github_oidc_id_token")
	assert.Equal(t, []string{"RS256"}, md.IDTokenSigningAlgValuesSupported)
	assert.Contains(t, md.CodeChallengeMethodsSupported, "S256")

	set := s.JWKS()
	require.Len(t, set.Keys, 1)
	assert.Equal(t, key.KID, set.Keys[0].Kid)
}
