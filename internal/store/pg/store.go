// Package pg implements the repositories on PostgreSQL via pgxpool.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packlane/authd/internal/domain/repository"
)

type Options struct {
	MaxConns        int
	ConnMaxLifetime string
}

type Store struct{ pool *pgxpool.Pool }

func New(ctx context.Context, dsn string, opts Options) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxConns > 0 {
		pcfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(opts.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations and metrics.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Clients() repository.ClientRepository     { return &clientRepo{pool: s.pool} }
func (s *Store) AuthCodes() repository.AuthCodeRepository { return &authCodeRepo{pool: s.pool} }
func (s *Store) Tokens() repository.TokenRepository       { return &tokenRepo{pool: s.pool} }
func (s *Store) Consents() repository.ConsentRepository   { return &consentRepo{pool: s.pool} }
func (s *Store) Accounts() repository.AccountDirectory    { return &accountDir{pool: s.pool} }
func (s *Store) Sessions() repository.SessionRepository   { return &sessionRepo{pool: s.pool} }

// mapErr translates pgx errors into the repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}
