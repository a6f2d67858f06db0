package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokens "github.com/packlane/authd/internal/security/token"
)

func introspector(e *env) *IntrospectService {
	return &IntrospectService{Auth: e.auth, Tokens: e.store.Tokens(), Codec: e.codec}
}

func revoker(e *env) *RevokeService {
	return &RevokeService{Auth: e.auth, Tokens: e.store.Tokens(), Codec: e.codec}
}

func TestIntrospect_ActiveAndInactive(t *testing.T) {
	e := newEnv(t)
	pair := bootstrapRefresh(t, e, "packages:read")
	ctx := context.Background()
	s := introspector(e)

	got, err := s.Introspect(ctx, "web-app", clientSecret, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, "web-app", got.ClientID)
	assert.Equal(t, "packages:read", got.Scope)
	assert.Equal(t, "individual", got.SubType)
	assert.Equal(t, testIndividualID, got.Sub)
	assert.Greater(t, got.Exp, time.Now().Unix())
	assert.NotZero(t, got.Iat)

	// Refresh tokens introspect too.
	got, err = s.Introspect(ctx, "web-app", clientSecret, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, got.Active)

	// Unknown, malformed and auth-code inputs are all just inactive.
	fresh, _, err := e.codec.Mint(tokens.KindAccessIndividual)
	require.NoError(t, err)
	for _, presented := range []string{"garbage", fresh, "plc_short"} {
		got, err = s.Introspect(ctx, "web-app", clientSecret, presented)
		require.NoError(t, err)
		assert.False(t, got.Active, "input %q", presented)
		assert.Empty(t, got.ClientID, "inactive responses carry nothing else")
	}

	// Unauthenticated caller gets an error, not a lookup.
	_, err = s.Introspect(ctx, "web-app", "wrong", pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestRevoke_RefreshKillsBoth(t *testing.T) {
	e := newEnv(t)
	pair := bootstrapRefresh(t, e, "packages:read")
	ctx := context.Background()

	require.NoError(t, revoker(e).Revoke(ctx, "web-app", clientSecret, pair.RefreshToken))

	s := introspector(e)
	got, err := s.Introspect(ctx, "web-app", clientSecret, pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, got.Active)
	got, err = s.Introspect(ctx, "web-app", clientSecret, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, got.Active, "revoking the refresh token revokes its access token")

	// Double revocation is a silent success (RFC 7009).
	assert.NoError(t, revoker(e).Revoke(ctx, "web-app", clientSecret, pair.RefreshToken))
}

func TestRevoke_AccessLeavesRefresh(t *testing.T) {
	e := newEnv(t)
	pair := bootstrapRefresh(t, e, "packages:read")
	ctx := context.Background()

	require.NoError(t, revoker(e).Revoke(ctx, "web-app", clientSecret, pair.AccessToken))

	s := introspector(e)
	got, err := s.Introspect(ctx, "web-app", clientSecret, pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, got.Active)
	got, err = s.Introspect(ctx, "web-app", clientSecret, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, got.Active, "access revocation leaves the refresh token usable")
}

func TestRevoke_SilentOnUnknownAndForeign(t *testing.T) {
	e := newEnv(t)
	pair := bootstrapRefresh(t, e, "packages:read")
	e.createClient(t, clientOpts{
		clientID:   "other-app",
		authMethod: "client_secret_basic",
		grantTypes: []string{"refresh_token"},
	})
	ctx := context.Background()
	r := revoker(e)

	// Unknown and malformed tokens: silent success.
	assert.NoError(t, r.Revoke(ctx, "web-app", clientSecret, "garbage"))
	fresh, _, err := e.codec.Mint(tokens.KindRefreshIndividual)
	require.NoError(t, err)
	assert.NoError(t, r.Revoke(ctx, "web-app", clientSecret, fresh))

	// Another client's token: silent success, nothing revoked.
	assert.NoError(t, r.Revoke(ctx, "other-app", clientSecret, pair.AccessToken))
	got, err := introspector(e).Introspect(ctx, "web-app", clientSecret, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, got.Active)
}
