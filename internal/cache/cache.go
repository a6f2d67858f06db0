// Package cache provides the small shared-state surface the authorization
// flow needs outside the relational store: the per-client nonce replay
// guard and pending consent challenges. Both are advisory, short-lived
// values; the relational store stays the only authoritative state.
//
// Backends:
//   - Memory (in-process, development and tests)
//   - Redis (shared, production)
package cache

import (
	"context"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get returns a value. Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL. A ttl of 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Add stores the value only if the key is absent. Returns false when
	// the key already existed. This is the primitive behind the nonce
	// replay guard.
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// GetDelete returns and removes a value in one step, so a pending
	// challenge can be consumed at most once. Returns ErrNotFound if the
	// key does not exist.
	GetDelete(ctx context.Context, key string) (string, error)

	// Delete removes a key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string // prepended to every key
}

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// IsNotFound reports whether err is the missing-key error.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New builds a cache client for the configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.Prefix), nil
	}
}
