package repository

import (
	"context"
	"time"
)

// Token endpoint authentication methods.
const (
	AuthMethodBasic = "client_secret_basic"
	AuthMethodPost  = "client_secret_post"
	AuthMethodNone  = "none"
)

// Client is a registered OAuth2/OIDC client.
type Client struct {
	ID       string // internal UUID
	ClientID string // public identifier
	Name     string

	// SecretHash is the argon2id hash of the client secret.
	// Empty for public (none-auth) clients.
	SecretHash string

	// RegistrationTokenHash is the argon2id hash of the registration
	// access token handed out at self-registration.
	RegistrationTokenHash string

	RedirectURIs []string
	GrantTypes   []string
	AuthMethod   string // client_secret_basic | client_secret_post | none
	Scopes       []string

	// FirstParty clients bypass the consent screen: scope is auto-granted.
	FirstParty bool

	// DefaultSubType is the principal kind assumed when a request does not
	// specify sub_type.
	DefaultSubType PrincipalKind

	CreatedAt time.Time
	UpdatedAt time.Time

	// DeletedAt marks a soft delete. Deleted clients stay in the table so
	// their outstanding tokens remain revocable and auditable.
	DeletedAt *time.Time
}

// AllowsGrantType reports whether the client may use the given grant type.
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether uri exactly matches a registered
// redirect URI. No prefix or wildcard matching.
func (c *Client) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AllowsScope reports whether every entry of scopes is in the client's
// registered scope set.
func (c *Client) AllowsScope(scopes []string) bool {
	allowed := make(map[string]struct{}, len(c.Scopes))
	for _, s := range c.Scopes {
		allowed[s] = struct{}{}
	}
	for _, s := range scopes {
		if _, ok := allowed[s]; !ok {
			return false
		}
	}
	return true
}

// ClientRepository defines operations on OAuth clients.
type ClientRepository interface {
	// GetByClientID returns a client by its public client_id, including
	// soft-deleted rows (callers check DeletedAt). Returns ErrNotFound
	// if no row exists.
	GetByClientID(ctx context.Context, clientID string) (*Client, error)

	// Create persists a new client. Returns ErrConflict if the client_id
	// is taken.
	Create(ctx context.Context, c *Client) error

	// Update replaces the mutable metadata of a client.
	Update(ctx context.Context, c *Client) error

	// SoftDelete marks the client deleted. The row is never removed.
	SoftDelete(ctx context.Context, clientID string) error
}
