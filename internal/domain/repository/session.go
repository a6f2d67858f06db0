package repository

import (
	"context"
	"time"
)

// WebSession is the read model of a first-party web session credential.
// Sessions are created by the login flow, which is not part of this core;
// the web grant only ever consumes them.
type WebSession struct {
	ID           string
	TokenHash    string
	IndividualID string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
}

// Usable reports whether the session is currently valid.
func (s *WebSession) Usable(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SessionRepository defines read access to web sessions.
type SessionRepository interface {
	// GetByTokenHash returns the session for a hashed session token.
	// Returns ErrNotFound if no row exists.
	GetByTokenHash(ctx context.Context, hash string) (*WebSession, error)
}
