package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implements Client on top of patrickmn/go-cache.
type memoryClient struct {
	c      *gocache.Cache
	prefix string

	// go-cache has no atomic get+delete; mu serializes GetDelete against
	// concurrent consumers of the same one-shot key.
	mu sync.Mutex
}

// NewMemory builds an in-process cache client.
func NewMemory(prefix string) Client {
	return &memoryClient{
		c:      gocache.New(gocache.NoExpiration, time.Minute),
		prefix: prefix,
	}
}

func (m *memoryClient) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return m.prefix + ":" + k
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(m.key(key), value, ttlOrDefault(ttl))
	return nil
}

func (m *memoryClient) Add(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := m.c.Add(m.key(key), value, ttlOrDefault(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryClient) GetDelete(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return "", ErrNotFound
	}
	m.c.Delete(m.key(key))
	return v.(string), nil
}

func (m *memoryClient) Delete(_ context.Context, key string) error {
	m.c.Delete(m.key(key))
	return nil
}

func (m *memoryClient) Ping(context.Context) error { return nil }

func (m *memoryClient) Close() error {
	m.c.Flush()
	return nil
}
