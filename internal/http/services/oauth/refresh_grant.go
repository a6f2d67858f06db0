package oauth

import (
	"context"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
	"github.com/packlane/authd/internal/validation"
)

// RefreshGrant rotates refresh tokens: each use revokes the presented
// token and mints a fresh access+refresh pair on the same principal.
type RefreshGrant struct {
	Tokens repository.TokenRepository
	Issuer *Issuer
}

func (g *RefreshGrant) Name() string { return "refresh_token" }

func (g *RefreshGrant) Exchange(ctx context.Context, client *repository.Client, req *TokenRequest) (*TokenResponse, error) {
	log := logger.From(ctx)

	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest
	}
	kind, err := tokens.Classify(req.RefreshToken)
	if err != nil || !kind.IsRefresh() {
		return nil, ErrInvalidGrant
	}

	row, err := g.Tokens.GetByRefreshHash(ctx, g.Issuer.codec.Hash(req.RefreshToken))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidGrant
		}
		log.Error("refresh lookup failed", logger.Err(err))
		return nil, ErrServerError
	}
	now := time.Now().UTC()
	if row.ClientID != client.ClientID || !row.RefreshUsable(now) {
		return nil, ErrInvalidGrant
	}

	scopes := row.Scopes
	if req.Scope != "" {
		requested, ok := validation.ParseScope(req.Scope)
		if !ok {
			return nil, ErrInvalidScope
		}
		// Narrower is fine, broader never.
		if !validation.ScopeSubset(requested, row.Scopes) {
			log.Warn("scope escalation on refresh rejected")
			return nil, ErrInvalidScope
		}
		scopes = requested
	}

	// Rotation-on-use. The conditional update makes concurrent uses of
	// the same token yield exactly one winner.
	if err := g.Tokens.RevokeRefresh(ctx, row.ID, now); err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, ErrInvalidGrant
		case err == repository.ErrAlreadyConsumed:
			log.Warn("refresh rotation race lost")
			return nil, ErrInvalidGrant
		default:
			log.Error("refresh revoke failed", logger.Err(err))
			return nil, ErrServerError
		}
	}

	// The refresh token itself is the credential; the principal carries
	// over from the stored row, not from any session.
	return g.Issuer.issue(ctx, client, row.Principal(), scopes, issueOpts{withRefresh: true})
}
