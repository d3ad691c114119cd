// Package counters keeps named, persistent run counters.
//
// Each increment is one atomic read-modify-write in the backing store: a
// SQLite upsert by default, or Redis INCR when counters.redis_addr is set.
package counters

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"tagtrack/internal/config"
)

// ProcessorRuns counts processing passes.
const ProcessorRuns = "processor_runs"

// Counter increments and reads named counters.
type Counter interface {
	Incr(ctx context.Context, name string) (int64, error)
	Get(ctx context.Context, name string) (int64, error)
}

// Backend is the store surface StoreCounter needs.
type Backend interface {
	IncrCounter(ctx context.Context, name string) (int64, error)
	GetCounter(ctx context.Context, name string) (int64, error)
}

// StoreCounter keeps counters in the SQLite store.
type StoreCounter struct {
	backend Backend
}

// NewStoreCounter wraps the store.
func NewStoreCounter(backend Backend) *StoreCounter {
	return &StoreCounter{backend: backend}
}

func (c *StoreCounter) Incr(ctx context.Context, name string) (int64, error) {
	return c.backend.IncrCounter(ctx, name)
}

func (c *StoreCounter) Get(ctx context.Context, name string) (int64, error) {
	return c.backend.GetCounter(ctx, name)
}

// RedisCounter keeps counters under prefixed Redis keys.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter wraps an existing client.
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) key(name string) string {
	return c.prefix + name
}

func (c *RedisCounter) Incr(ctx context.Context, name string) (int64, error) {
	value, err := c.client.Incr(ctx, c.key(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", name, err)
	}
	return value, nil
}

func (c *RedisCounter) Get(ctx context.Context, name string) (int64, error) {
	value, err := c.client.Get(ctx, c.key(name)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", name, err)
	}
	return value, nil
}

// Close releases the Redis connection pool.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// New selects the backend from configuration. The returned close function
// releases any external connection.
func New(ctx context.Context, cfg *config.Config, backend Backend) (Counter, func() error, error) {
	addr := ""
	if cfg != nil {
		addr = strings.TrimSpace(cfg.Counters.RedisAddr)
	}
	if addr == "" {
		return NewStoreCounter(backend), func() error { return nil }, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   cfg.Counters.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	counter := NewRedisCounter(client, cfg.Counters.KeyPrefix)
	return counter, counter.Close, nil
}
