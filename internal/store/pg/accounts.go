package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

// accountDir reads the account tables owned by the accounts service.
// Strictly read-only here.
type accountDir struct{ pool *pgxpool.Pool }

func (d *accountDir) IndividualByID(ctx context.Context, id string) (*repository.Individual, error) {
	const q = `
		SELECT id, name, email FROM individual_accounts
		WHERE id = $1 AND deleted_at IS NULL`
	var ind repository.Individual
	if err := d.pool.QueryRow(ctx, q, id).Scan(&ind.ID, &ind.Name, &ind.Email); err != nil {
		return nil, mapErr(err)
	}
	return &ind, nil
}

func (d *accountDir) OrganizationByID(ctx context.Context, id string) (*repository.Organization, error) {
	const q = `
		SELECT id, name, COALESCE(github_owner_id, '') FROM organizations
		WHERE id = $1 AND deleted_at IS NULL`
	var org repository.Organization
	if err := d.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.GitHubOwnerID); err != nil {
		return nil, mapErr(err)
	}
	return &org, nil
}

func (d *accountDir) IsOrganizationAdmin(ctx context.Context, orgID, individualID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM organization_admins
			WHERE organization_id = $1 AND individual_id = $2 AND deleted_at IS NULL
		)`
	var ok bool
	if err := d.pool.QueryRow(ctx, q, orgID, individualID).Scan(&ok); err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}

func (d *accountDir) OrganizationByGitHubOwnerID(ctx context.Context, ownerID string) (*repository.Organization, error) {
	const q = `
		SELECT id, name, COALESCE(github_owner_id, '') FROM organizations
		WHERE github_owner_id = $1 AND deleted_at IS NULL`
	var org repository.Organization
	if err := d.pool.QueryRow(ctx, q, ownerID).Scan(&org.ID, &org.Name, &org.GitHubOwnerID); err != nil {
		return nil, mapErr(err)
	}
	return &org, nil
}
