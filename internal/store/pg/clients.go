package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

type clientRepo struct{ pool *pgxpool.Pool }

const clientColumns = `
	id, client_id, name, secret_hash, registration_token_hash,
	redirect_uris, grant_types, auth_method, scopes,
	first_party, default_sub_type, created_at, updated_at, deleted_at`

func (r *clientRepo) GetByClientID(ctx context.Context, clientID string) (*repository.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM oauth_clients WHERE client_id = $1`
	var c repository.Client
	err := r.pool.QueryRow(ctx, q, clientID).Scan(
		&c.ID, &c.ClientID, &c.Name, &c.SecretHash, &c.RegistrationTokenHash,
		&c.RedirectURIs, &c.GrantTypes, &c.AuthMethod, &c.Scopes,
		&c.FirstParty, &c.DefaultSubType, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *clientRepo) Create(ctx context.Context, c *repository.Client) error {
	const q = `
		INSERT INTO oauth_clients (
			client_id, name, secret_hash, registration_token_hash,
			redirect_uris, grant_types, auth_method, scopes,
			first_party, default_sub_type
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		c.ClientID, c.Name, c.SecretHash, c.RegistrationTokenHash,
		c.RedirectURIs, c.GrantTypes, c.AuthMethod, c.Scopes,
		c.FirstParty, c.DefaultSubType,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *clientRepo) Update(ctx context.Context, c *repository.Client) error {
	const q = `
		UPDATE oauth_clients SET
			name = $2, redirect_uris = $3, grant_types = $4,
			auth_method = $5, scopes = $6, default_sub_type = $7,
			updated_at = NOW()
		WHERE client_id = $1 AND deleted_at IS NULL
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q,
		c.ClientID, c.Name, c.RedirectURIs, c.GrantTypes,
		c.AuthMethod, c.Scopes, c.DefaultSubType,
	).Scan(&c.UpdatedAt)
	return mapErr(err)
}

func (r *clientRepo) SoftDelete(ctx context.Context, clientID string) error {
	const q = `
		UPDATE oauth_clients SET deleted_at = NOW(), updated_at = NOW()
		WHERE client_id = $1 AND deleted_at IS NULL`
	ct, err := r.pool.Exec(ctx, q, clientID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
