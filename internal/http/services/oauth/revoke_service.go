package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/metrics"
	"github.com/packlane/authd/internal/observability/logger"
	tokens "github.com/packlane/authd/internal/security/token"
)

// RevokeService implements RFC 7009. Revoking a refresh token kills its
// access token too; revoking an access token leaves the refresh alone.
// Unknown, malformed and already-revoked tokens all succeed silently.
type RevokeService struct {
	Auth   *ClientAuthenticator
	Tokens repository.TokenRepository
	Codec  *tokens.Codec
}

func (s *RevokeService) Revoke(ctx context.Context, clientID, clientSecret, presented string) error {
	client, err := s.Auth.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return err
	}
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.revoke"),
		logger.ClientID(client.ClientID),
	)

	kind, err := tokens.Classify(presented)
	if err != nil {
		return nil
	}

	now := time.Now().UTC()
	hash := s.Codec.Hash(presented)

	switch {
	case kind.IsRefresh():
		row, err := s.Tokens.GetByRefreshHash(ctx, hash)
		if err != nil {
			return swallowNotFound(err)
		}
		if row.ClientID != client.ClientID {
			// A client may only revoke its own tokens; still a silent
			// success so ownership cannot be probed.
			return nil
		}
		if err := s.Tokens.RevokeRefresh(ctx, row.ID, now); err != nil &&
			!errors.Is(err, repository.ErrAlreadyConsumed) && !repository.IsNotFound(err) {
			log.Error("refresh revoke failed", logger.Err(err))
			return ErrServerError
		}
		if err := s.Tokens.RevokeAccess(ctx, row.ID, now); err != nil {
			log.Error("access revoke failed", logger.Err(err))
			return ErrServerError
		}
		metrics.TokensRevoked.WithLabelValues("refresh").Inc()

	case kind.IsAccess():
		row, err := s.Tokens.GetByAccessHash(ctx, hash)
		if err != nil {
			return swallowNotFound(err)
		}
		if row.ClientID != client.ClientID {
			return nil
		}
		if err := s.Tokens.RevokeAccess(ctx, row.ID, now); err != nil {
			log.Error("access revoke failed", logger.Err(err))
			return ErrServerError
		}
		metrics.TokensRevoked.WithLabelValues("access").Inc()
	}
	return nil
}

func swallowNotFound(err error) error {
	if repository.IsNotFound(err) {
		return nil
	}
	return ErrServerError
}
