package oauth

import (
	"context"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	"github.com/packlane/authd/internal/rate"
)

// WebSessionGrant exchanges a first-party web session credential for an
// access token. No refresh token is ever issued: the session itself is the
// long-lived, revocable credential.
//
// Brute-force protection: session tokens are looked up by hash, so this
// layer carries a modest per-address fixed-window limiter. The real
// throttle lives in front of the server; this one only blunts a direct
// hammering of the endpoint.
type WebSessionGrant struct {
	Auth     *ClientAuthenticator
	Resolver *PrincipalResolver
	Sessions repository.SessionRepository
	Issuer   *Issuer
	Limiter  rate.Limiter
}

func (g *WebSessionGrant) Name() string { return "web" }

func (g *WebSessionGrant) Exchange(ctx context.Context, client *repository.Client, req *TokenRequest) (*TokenResponse, error) {
	log := logger.From(ctx)

	// Secret authentication is mandatory here; the dispatcher already
	// verified the secret, this rejects none-auth registrations.
	if err := RequireConfidential(client); err != nil {
		return nil, err
	}
	if req.SessionToken == "" {
		return nil, ErrInvalidRequest
	}

	if g.Limiter != nil {
		r, err := g.Limiter.Allow(ctx, "web:"+req.RemoteAddr)
		if err != nil {
			log.Error("rate limiter failed", logger.Err(err))
			return nil, ErrServerError
		}
		if !r.Allowed {
			log.Warn("web grant rate limited")
			return nil, ErrSlowDown
		}
	}

	ws, err := g.Sessions.GetByTokenHash(ctx, g.Issuer.codec.Hash(req.SessionToken))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidGrant
		}
		log.Error("session lookup failed", logger.Err(err))
		return nil, ErrServerError
	}
	if !ws.Usable(time.Now().UTC()) {
		return nil, ErrInvalidGrant
	}

	p, err := g.Resolver.Resolve(ctx, client, repository.PrincipalKind(req.SubType), req.Sub, ws.IndividualID)
	if err != nil {
		if err == ErrLoginRequired {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	scopes, err := resolveClientScope(client, req.Scope)
	if err != nil {
		return nil, err
	}
	return g.Issuer.issue(ctx, client, p, scopes, issueOpts{withRefresh: false})
}
