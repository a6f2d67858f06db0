package oauth

import (
	"context"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	"github.com/packlane/authd/internal/security/secrethash"
)

// ClientAuthenticator resolves and authenticates clients at the token,
// introspection and revocation endpoints.
type ClientAuthenticator struct {
	Clients repository.ClientRepository
}

// Resolve returns a live client by its public id. Soft-deleted and unknown
// clients both come back as ErrInvalidClient.
func (a *ClientAuthenticator) Resolve(ctx context.Context, clientID string) (*repository.Client, error) {
	if clientID == "" {
		return nil, ErrInvalidClient
	}
	c, err := a.Clients.GetByClientID(ctx, clientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidClient
		}
		logger.From(ctx).Error("client lookup failed", logger.Err(err))
		return nil, ErrServerError
	}
	if c.DeletedAt != nil {
		return nil, ErrInvalidClient
	}
	return c, nil
}

// Authenticate verifies the presented secret against the client's
// registered auth method. For basic/post a secret must verify against the
// stored argon2id hash; for none-auth clients no secret is accepted and
// the caller must enforce PKCE on the flow itself. Every failure is the
// same generic ErrInvalidClient so callers learn nothing about which part
// failed.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, clientID, secret string) (*repository.Client, error) {
	c, err := a.Resolve(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch c.AuthMethod {
	case repository.AuthMethodBasic, repository.AuthMethodPost:
		if secret == "" || c.SecretHash == "" {
			return nil, ErrInvalidClient
		}
		if !secrethash.Verify(secret, c.SecretHash) {
			return nil, ErrInvalidClient
		}
	case repository.AuthMethodNone:
		if secret != "" {
			return nil, ErrInvalidClient
		}
	default:
		return nil, ErrInvalidClient
	}
	return c, nil
}

// RequireConfidential rejects clients that cannot hold a secret. The web
// grant applies it after dispatcher authentication: a none-auth client can
// never exchange a session credential.
func RequireConfidential(c *repository.Client) error {
	if c.AuthMethod == repository.AuthMethodNone {
		return ErrInvalidClient
	}
	return nil
}
