package oauth

import (
	"context"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
)

// AuthCodeGrant exchanges a one-shot authorization code for tokens.
type AuthCodeGrant struct {
	AuthCodes repository.AuthCodeRepository
	Issuer    *Issuer
}

func (g *AuthCodeGrant) Name() string { return "authorization_code" }

func (g *AuthCodeGrant) Exchange(ctx context.Context, client *repository.Client, req *TokenRequest) (*TokenResponse, error) {
	log := logger.From(ctx)

	if req.Code == "" || req.RedirectURI == "" {
		return nil, ErrInvalidRequest
	}
	kind, err := tokens.Classify(req.Code)
	if err != nil || kind != tokens.KindAuthCode {
		return nil, ErrInvalidGrant
	}

	// Consume first: the row is destroyed even when a later check fails,
	// so a partially-validated code can never be retried.
	code, err := g.AuthCodes.Consume(ctx, g.Issuer.codec.Hash(req.Code), client.ClientID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("authorization code unknown or already consumed")
			return nil, ErrInvalidGrant
		}
		log.Error("code consume failed", logger.Err(err))
		return nil, ErrServerError
	}
	if time.Now().After(code.ExpiresAt) {
		log.Warn("authorization code expired")
		return nil, ErrInvalidGrant
	}
	if code.RedirectURI != req.RedirectURI {
		log.Warn("redirect_uri mismatch at exchange")
		return nil, ErrInvalidGrant
	}
	if err := verifyPKCE(code, req.CodeVerifier); err != nil {
		log.Warn("pkce verification failed")
		return nil, err
	}

	return g.Issuer.issue(ctx, client, code.Principal(), code.Scopes, issueOpts{
		withRefresh: client.AllowsGrantType("refresh_token"),
		idNonce:     code.Nonce,
	})
}

// verifyPKCE checks the stored challenge against the presented verifier.
// A code issued with a challenge never exchanges without the matching
// verifier; a code issued without one rejects any verifier.
func verifyPKCE(code *repository.AuthorizationCode, verifier string) error {
	if code.CodeChallenge == "" {
		if verifier != "" {
			return ErrInvalidGrant
		}
		return nil
	}
	if verifier == "" {
		return ErrInvalidGrant
	}
	switch code.CodeChallengeMethod {
	case repository.ChallengeMethodS256:
		if !tokens.ConstantTimeEqual(tokens.SHA256Base64URL(verifier), code.CodeChallenge) {
			return ErrInvalidGrant
		}
	case repository.ChallengeMethodPlain:
		if !tokens.ConstantTimeEqual(verifier, code.CodeChallenge) {
			return ErrInvalidGrant
		}
	default:
		return ErrInvalidGrant
	}
	return nil
}
