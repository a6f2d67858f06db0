package repository

import (
	"context"
	"time"
)

// Consent is the durable record of which scopes a principal has approved
// for a client. Scope accumulates: each approval unions into the stored
// set, nothing is implicitly subtracted.
type Consent struct {
	ID        string
	SubType   PrincipalKind
	SubID     string
	ClientID  string
	Scopes    []string
	GrantedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether every requested scope is already granted.
func (c *Consent) Covers(requested []string) bool {
	granted := make(map[string]struct{}, len(c.Scopes))
	for _, s := range c.Scopes {
		granted[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := granted[s]; !ok {
			return false
		}
	}
	return true
}

// ConsentRepository defines operations on consent records.
type ConsentRepository interface {
	// Get returns the consent row for (principal, client).
	// Returns ErrNotFound if the principal never consented to the client.
	Get(ctx context.Context, p Principal, clientID string) (*Consent, error)

	// UpsertUnion merges scopes into the stored set for (principal,
	// client), creating the row if absent. The stored scope set only ever
	// grows through this call.
	UpsertUnion(ctx context.Context, p Principal, clientID string, scopes []string) (*Consent, error)
}
