// Package store wires the repository interfaces to a concrete backend.
package store

import (
	"context"
	"fmt"

	"github.com/packlane/authd/internal/config"
	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/store/memory"
	"github.com/packlane/authd/internal/store/pg"
)

// Store aggregates every repository the services depend on.
type Store interface {
	Clients() repository.ClientRepository
	AuthCodes() repository.AuthCodeRepository
	Tokens() repository.TokenRepository
	Consents() repository.ConsentRepository
	Accounts() repository.AccountDirectory
	Sessions() repository.SessionRepository

	Ping(ctx context.Context) error
	Close()
}

// New builds the backend named by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return pg.New(ctx, cfg.Storage.DSN, pg.Options{
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}
}
