package oauth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
)

// GitHubOIDCGrant trusts a GitHub-issued OIDC ID token and mints an access
// token on the organization mapped to the assertion's repository owner.
// One assertion mints at most one token: the jti claim is the replay key.
type GitHubOIDCGrant struct {
	Verifier AssertionVerifier
	Accounts repository.AccountDirectory
	Tokens   repository.TokenRepository
	Issuer   *Issuer
}

func (g *GitHubOIDCGrant) Name() string { return "github_oidc_id_token" }

func (g *GitHubOIDCGrant) Exchange(ctx context.Context, client *repository.Client, req *TokenRequest) (*TokenResponse, error) {
	log := logger.From(ctx)

	if req.IDToken == "" {
		return nil, ErrInvalidRequest
	}

	claims, err := g.Verifier.Verify(ctx, req.IDToken)
	if err != nil {
		// Covers bad signature, wrong aud, expired, untrusted issuer and
		// unreachable key sets alike; verification failures never split
		// into distinguishable errors.
		log.Warn("federated assertion rejected", logger.Err(err))
		return nil, ErrInvalidGrant
	}
	if claims.JTI == "" || claims.RepositoryOwnerID == "" {
		return nil, ErrInvalidGrant
	}

	seen, err := g.Tokens.NonceSeen(ctx, claims.JTI)
	if err != nil {
		log.Error("replay lookup failed", logger.Err(err))
		return nil, ErrServerError
	}
	if seen {
		log.Warn("federated assertion replayed", logger.Issuer(claims.Issuer))
		return nil, ErrInvalidGrant
	}

	org, err := g.Accounts.OrganizationByGitHubOwnerID(ctx, claims.RepositoryOwnerID)
	if err != nil {
		if repository.IsNotFound(err) {
			// Unmapped owners fail closed; a principal is never created
			// on the strength of a third-party assertion.
			return nil, ErrInvalidGrant
		}
		log.Error("owner mapping lookup failed", logger.Err(err))
		return nil, ErrServerError
	}

	scopes, err := resolveClientScope(client, req.Scope)
	if err != nil {
		return nil, err
	}

	// Never outlive the source assertion.
	ttl := g.Issuer.accessTTL
	if remaining := time.Until(claims.Expiry); remaining > 0 && remaining < ttl {
		ttl = remaining
	}

	return g.Issuer.issue(ctx, client, repository.OrganizationPrincipal(org.ID), scopes, issueOpts{
		withRefresh: false,
		accessTTL:   ttl,
		rowNonce:    claims.JTI,
	})
}

// parseJWTSegment decodes the payload segment of a compact JWT.
func parseJWTSegment(raw string) ([]byte, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, errors.New("not a compact JWT")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}
