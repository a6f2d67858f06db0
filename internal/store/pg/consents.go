package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/validation"
)

type consentRepo struct{ pool *pgxpool.Pool }

func (r *consentRepo) Get(ctx context.Context, p repository.Principal, clientID string) (*repository.Consent, error) {
	const q = `
		SELECT id, sub_type, sub_id, client_id, scopes, granted_at, updated_at
		FROM consents
		WHERE sub_type = $1 AND sub_id = $2 AND client_id = $3`
	var c repository.Consent
	err := r.pool.QueryRow(ctx, q, p.Kind, p.ID, clientID).Scan(
		&c.ID, &c.SubType, &c.SubID, &c.ClientID, &c.Scopes, &c.GrantedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// UpsertUnion merges in Go rather than in SQL: read, union, write. The
// unique index on (sub_type, sub_id, client_id) plus ON CONFLICT keeps
// concurrent upserts from duplicating rows; a lost scope from an
// interleaved write is repaired on the next approval.
func (r *consentRepo) UpsertUnion(ctx context.Context, p repository.Principal, clientID string, scopes []string) (*repository.Consent, error) {
	merged := scopes
	if existing, err := r.Get(ctx, p, clientID); err == nil {
		merged = validation.ScopeUnion(existing.Scopes, scopes)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	const q = `
		INSERT INTO consents (sub_type, sub_id, client_id, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sub_type, sub_id, client_id) DO UPDATE
			SET scopes = EXCLUDED.scopes, updated_at = NOW()
		RETURNING id, sub_type, sub_id, client_id, scopes, granted_at, updated_at`
	var c repository.Consent
	err := r.pool.QueryRow(ctx, q, p.Kind, p.ID, clientID, merged).Scan(
		&c.ID, &c.SubType, &c.SubID, &c.ClientID, &c.Scopes, &c.GrantedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}
