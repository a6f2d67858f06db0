package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

type authCodeRepo struct{ pool *pgxpool.Pool }

func (r *authCodeRepo) Create(ctx context.Context, code *repository.AuthorizationCode) error {
	const q = `
		INSERT INTO authorization_codes (
			code_hash, client_id, sub_type, sub_id, scopes, redirect_uri,
			nonce, code_challenge, code_challenge_method, created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.pool.Exec(ctx, q,
		code.CodeHash, code.ClientID, code.SubType, code.SubID,
		code.Scopes, code.RedirectURI, code.Nonce,
		code.CodeChallenge, code.CodeChallengeMethod,
		code.CreatedAt, code.ExpiresAt,
	)
	return mapErr(err)
}

// Consume deletes and returns in one statement so exactly one caller can
// ever win a given code.
func (r *authCodeRepo) Consume(ctx context.Context, codeHash, clientID string) (*repository.AuthorizationCode, error) {
	const q = `
		DELETE FROM authorization_codes
		WHERE code_hash = $1 AND client_id = $2
		RETURNING code_hash, client_id, sub_type, sub_id, scopes, redirect_uri,
			nonce, code_challenge, code_challenge_method, created_at, expires_at`
	var c repository.AuthorizationCode
	err := r.pool.QueryRow(ctx, q, codeHash, clientID).Scan(
		&c.CodeHash, &c.ClientID, &c.SubType, &c.SubID, &c.Scopes, &c.RedirectURI,
		&c.Nonce, &c.CodeChallenge, &c.CodeChallengeMethod, &c.CreatedAt, &c.ExpiresAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *authCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	const q = `DELETE FROM authorization_codes WHERE expires_at <= $1`
	ct, err := r.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(ct.RowsAffected()), nil
}
