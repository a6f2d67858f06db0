package repository

import "context"

// Individual is the read model of an individual account. Identity
// attributes feed ID-token claims, each gated by its own scope.
type Individual struct {
	ID    string
	Name  string
	Email string
}

// Organization is the read model of an organization account.
type Organization struct {
	ID   string
	Name string

	// GitHubOwnerID is the external owner identity the federated grant
	// maps onto this organization. Empty when no mapping is configured.
	GitHubOwnerID string
}

// AccountDirectory exposes the account tables the core reads but does not
// own. Account lifecycle lives elsewhere.
type AccountDirectory interface {
	// IndividualByID returns an individual account. ErrNotFound if absent
	// or deleted.
	IndividualByID(ctx context.Context, id string) (*Individual, error)

	// OrganizationByID returns an organization account. ErrNotFound if
	// absent or deleted.
	OrganizationByID(ctx context.Context, id string) (*Organization, error)

	// IsOrganizationAdmin reports whether the individual currently holds a
	// non-deleted administrative membership in the organization.
	IsOrganizationAdmin(ctx context.Context, orgID, individualID string) (bool, error)

	// OrganizationByGitHubOwnerID resolves the organization mapped to an
	// external GitHub owner identity. ErrNotFound when unmapped.
	OrganizationByGitHubOwnerID(ctx context.Context, ownerID string) (*Organization, error)
}
