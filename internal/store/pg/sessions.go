package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

// sessionRepo reads web sessions created by the login flow. Read-only.
type sessionRepo struct{ pool *pgxpool.Pool }

func (r *sessionRepo) GetByTokenHash(ctx context.Context, hash string) (*repository.WebSession, error) {
	const q = `
		SELECT id, token_hash, individual_id, created_at, expires_at, revoked_at
		FROM web_sessions WHERE token_hash = $1`
	var s repository.WebSession
	err := r.pool.QueryRow(ctx, q, hash).Scan(
		&s.ID, &s.TokenHash, &s.IndividualID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}
