package repository

import (
	"context"
	"time"
)

// Token is one issuance row: an access token and, optionally, its paired
// refresh token. Revocation is a timestamp write, never a delete, so
// introspection and audit can answer "was this ever valid" afterwards.
type Token struct {
	ID string

	AccessTokenHash  string
	RefreshTokenHash string // empty when no refresh token was issued

	ClientID string
	SubType  PrincipalKind
	SubID    string
	Scopes   []string

	// Nonce is the replay guard for the federated grant: the source
	// assertion's jti. Empty for all other grants.
	Nonce string

	IssuedAt         time.Time
	AccessExpiresAt  time.Time
	RefreshExpiresAt *time.Time

	AccessRevokedAt  *time.Time
	RefreshRevokedAt *time.Time
}

// Principal returns the tagged principal the token was issued for.
func (t *Token) Principal() Principal {
	return Principal{Kind: t.SubType, ID: t.SubID}
}

// AccessUsable reports whether the access token is currently valid.
func (t *Token) AccessUsable(now time.Time) bool {
	return t.AccessRevokedAt == nil && now.Before(t.AccessExpiresAt)
}

// RefreshUsable reports whether the refresh token is currently valid.
func (t *Token) RefreshUsable(now time.Time) bool {
	if t.RefreshTokenHash == "" || t.RefreshRevokedAt != nil {
		return false
	}
	return t.RefreshExpiresAt == nil || now.Before(*t.RefreshExpiresAt)
}

// TokenRepository defines operations on issued tokens.
type TokenRepository interface {
	// Create persists a new issuance row and fills in its ID.
	Create(ctx context.Context, t *Token) error

	// GetByAccessHash returns the row for an access token hash.
	// Returns ErrNotFound if no row exists.
	GetByAccessHash(ctx context.Context, hash string) (*Token, error)

	// GetByRefreshHash returns the row for a refresh token hash.
	// Returns ErrNotFound if no row exists.
	GetByRefreshHash(ctx context.Context, hash string) (*Token, error)

	// RevokeRefresh sets refresh_token_revoked_at if it is still null.
	// Returns ErrAlreadyConsumed when a concurrent rotation won the race,
	// and ErrNotFound when no row matches.
	RevokeRefresh(ctx context.Context, id string, now time.Time) error

	// RevokeAccess sets access_token_revoked_at (idempotent).
	RevokeAccess(ctx context.Context, id string, now time.Time) error

	// NonceSeen reports whether any issuance exists with the given
	// federated-grant nonce, revoked or not. Used for jti replay checks.
	NonceSeen(ctx context.Context, nonce string) (bool, error)
}
