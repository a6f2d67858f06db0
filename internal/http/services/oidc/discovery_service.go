// Package oidc contains the services of the OIDC discovery surface.
package oidc

import (
	"strings"

	dto "github.com/packlane/authd/internal/http/dto/oidc"
	jwtx "github.com/packlane/authd/internal/jwt"
)

// DiscoveryService serves the static provider metadata and the JWKS
// document. Both are derived entirely from configuration; nothing here
// touches storage.
type DiscoveryService struct {
	issuer string
	signer *jwtx.Issuer
}

func NewDiscoveryService(issuer string, signer *jwtx.Issuer) *DiscoveryService {
	return &DiscoveryService{
		issuer: strings.TrimRight(issuer, "/"),
		signer: signer,
	}
}

var (
	responseTypesSupported            = []string{"code"}
	grantTypesSupported               = []string{"authorization_code", "refresh_token", "web", "github_oidc_id_token"}
	subjectTypesSupported             = []string{"public"}
	idTokenSigningAlgValuesSupported  = []string{"RS256"}
	tokenEndpointAuthMethodsSupported = []string{"client_secret_basic", "client_secret_post", "none"}
	codeChallengeMethodsSupported     = []string{"plain", "S256"}
	scopesSupported                   = []string{"openid", "profile", "email", "packages:read", "packages:write"}
	claimsSupported                   = []string{
		"iss", "sub", "aud", "exp", "iat", "nbf",
		"nonce", "at_hash", "name", "email",
	}
)

// Discovery builds the provider configuration document.
func (s *DiscoveryService) Discovery() dto.Metadata {
	return dto.Metadata{
		Issuer:                            s.issuer,
		AuthorizationEndpoint:             s.issuer + "/oauth2/authorize",
		TokenEndpoint:                     s.issuer + "/oauth2/token",
		JWKSURI:                           s.issuer + "/.well-known/jwks.json",
		RevocationEndpoint:                s.issuer + "/oauth2/revoke",
		IntrospectionEndpoint:             s.issuer + "/oauth2/introspect",
		RegistrationEndpoint:              s.issuer + "/oauth2/register",
		ResponseTypesSupported:            responseTypesSupported,
		GrantTypesSupported:               grantTypesSupported,
		SubjectTypesSupported:             subjectTypesSupported,
		IDTokenSigningAlgValuesSupported:  idTokenSigningAlgValuesSupported,
		TokenEndpointAuthMethodsSupported: tokenEndpointAuthMethodsSupported,
		CodeChallengeMethodsSupported:     codeChallengeMethodsSupported,
		ScopesSupported:                   scopesSupported,
		ClaimsSupported:                   claimsSupported,
	}
}

// JWKS returns the public signing keys.
func (s *DiscoveryService) JWKS() jwtx.JWKS {
	return s.signer.PublicJWKS()
}
