// Package rate implements a fixed-window request limiter guarding the
// web-session exchange grant. Final throttling policy belongs to the
// transport layer in front of this server; this limiter only blunts
// brute-force attempts against raw session credentials.
package rate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter: simple fixed window (INCR + EXPIRE).
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	redisKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, err := l.Client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, err
	}
	if hits == 1 {
		_ = l.Client.Expire(ctx, redisKey, l.Window).Err()
	}

	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:     hits <= l.Max,
		Remaining:   remaining,
		RetryAfter:  winStart.Add(l.Window).Sub(now),
		CurrentHits: hits,
	}, nil
}

// MemoryLimiter: same fixed window, in-process. Development and tests.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu   sync.Mutex
	hits map[string]int64
	win  time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		hits:   make(map[string]int64),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !winStart.Equal(l.win) {
		l.win = winStart
		l.hits = make(map[string]int64)
	}
	l.hits[key]++
	hits := l.hits[key]

	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:     hits <= l.Max,
		Remaining:   remaining,
		RetryAfter:  winStart.Add(l.Window).Sub(now),
		CurrentHits: hits,
	}, nil
}

// Unlimited never rejects. Used where configuration disables limiting.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
