package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

const tokenColumns = `
	id, access_token_hash, refresh_token_hash, client_id, sub_type, sub_id,
	scopes, nonce, issued_at, access_expires_at, refresh_expires_at,
	access_revoked_at, refresh_revoked_at`

func (r *tokenRepo) Create(ctx context.Context, t *repository.Token) error {
	const q = `
		INSERT INTO tokens (
			access_token_hash, refresh_token_hash, client_id, sub_type, sub_id,
			scopes, nonce, issued_at, access_expires_at, refresh_expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	err := r.pool.QueryRow(ctx, q,
		t.AccessTokenHash, t.RefreshTokenHash, t.ClientID, t.SubType, t.SubID,
		t.Scopes, t.Nonce, t.IssuedAt, t.AccessExpiresAt, t.RefreshExpiresAt,
	).Scan(&t.ID)
	return mapErr(err)
}

func (r *tokenRepo) GetByAccessHash(ctx context.Context, hash string) (*repository.Token, error) {
	const q = `SELECT ` + tokenColumns + ` FROM tokens WHERE access_token_hash = $1`
	return r.scanOne(ctx, q, hash)
}

func (r *tokenRepo) GetByRefreshHash(ctx context.Context, hash string) (*repository.Token, error) {
	const q = `SELECT ` + tokenColumns + ` FROM tokens WHERE refresh_token_hash = $1`
	return r.scanOne(ctx, q, hash)
}

func (r *tokenRepo) scanOne(ctx context.Context, q string, arg any) (*repository.Token, error) {
	var t repository.Token
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&t.ID, &t.AccessTokenHash, &t.RefreshTokenHash, &t.ClientID, &t.SubType, &t.SubID,
		&t.Scopes, &t.Nonce, &t.IssuedAt, &t.AccessExpiresAt, &t.RefreshExpiresAt,
		&t.AccessRevokedAt, &t.RefreshRevokedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// RevokeRefresh is conditional on the column still being null, so the loser
// of a concurrent rotation learns it lost instead of silently re-revoking.
func (r *tokenRepo) RevokeRefresh(ctx context.Context, id string, now time.Time) error {
	const q = `
		UPDATE tokens SET refresh_revoked_at = $2
		WHERE id = $1 AND refresh_revoked_at IS NULL`
	ct, err := r.pool.Exec(ctx, q, id, now)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	// Distinguish "already revoked" from "no such row".
	const check = `SELECT 1 FROM tokens WHERE id = $1`
	var one int
	if err := r.pool.QueryRow(ctx, check, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return repository.ErrAlreadyConsumed
}

func (r *tokenRepo) RevokeAccess(ctx context.Context, id string, now time.Time) error {
	const q = `
		UPDATE tokens SET access_revoked_at = $2
		WHERE id = $1 AND access_revoked_at IS NULL`
	ct, err := r.pool.Exec(ctx, q, id, now)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		// Idempotent: already revoked or gone, either way nothing to do.
		return nil
	}
	return nil
}

func (r *tokenRepo) NonceSeen(ctx context.Context, nonce string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM tokens WHERE nonce = $1)`
	var seen bool
	if err := r.pool.QueryRow(ctx, q, nonce).Scan(&seen); err != nil {
		return false, mapErr(err)
	}
	return seen, nil
}
