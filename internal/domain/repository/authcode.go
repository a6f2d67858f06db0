package repository

import (
	"context"
	"time"
)

// Code challenge methods (RFC 7636).
const (
	ChallengeMethodPlain = "plain"
	ChallengeMethodS256  = "S256"
)

// AuthorizationCode is a one-shot code binding a principal, client, scope
// and PKCE challenge between the authorize and token steps.
type AuthorizationCode struct {
	CodeHash    string
	ClientID    string
	SubType     PrincipalKind
	SubID       string
	Scopes      []string
	RedirectURI string

	Nonce               string // optional OIDC nonce, echoed into the ID token
	CodeChallenge       string // optional PKCE challenge
	CodeChallengeMethod string // "plain" | "S256", empty when no challenge

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Principal returns the tagged principal the code was issued for.
func (c *AuthorizationCode) Principal() Principal {
	return Principal{Kind: c.SubType, ID: c.SubID}
}

// AuthCodeRepository defines operations on authorization codes.
type AuthCodeRepository interface {
	// Create persists a new code row.
	Create(ctx context.Context, code *AuthorizationCode) error

	// Consume atomically deletes and returns the code row matching
	// (codeHash, clientID). Concurrent calls for the same code must yield
	// exactly one success; losers get ErrNotFound. Expiry is NOT checked
	// here - callers validate ExpiresAt after consumption so an expired
	// code is still destroyed.
	Consume(ctx context.Context, codeHash, clientID string) (*AuthorizationCode, error)

	// DeleteExpired removes codes past their expiry. Returns the number
	// of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
