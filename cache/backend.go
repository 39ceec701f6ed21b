// Package cache puts a read-through cache in front of the hottest single-row lookups
// (environments, organizations and licenses). Writes through the decorated
// repositories evict the affected key; misses are never cached.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrUnsupportedDriver is returned for cache drivers other than none, memory and redis
var ErrUnsupportedDriver = errors.New("unsupported cache driver")

// Backend stores encoded values by key
type Backend interface {
	// Get returns the value and whether the key was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// MemoryBackend keeps entries in process
type MemoryBackend struct {
	c *gocache.Cache
}

// NewMemoryBackend creates an in-process backend whose entries expire after defaultTTL
func NewMemoryBackend(defaultTTL time.Duration) *MemoryBackend {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryBackend{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	return b, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.c.Flush()
	return nil
}

// Len reports the number of live entries
func (m *MemoryBackend) Len() int {
	return m.c.ItemCount()
}

// RedisBackend shares entries across processes through Redis
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an open client; Close closes it
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// NewBackend builds the backend selected by the cache section. The "none" driver
// returns a nil Backend, which Wrap treats as caching disabled.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Cache.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryBackend(cfg.Cache.TTL), nil
	case "redis":
		client, err := db.NewRedisClient(ctx, db.RedisConfig{
			Addr:       cfg.RedisAddr(),
			Password:   cfg.Cache.Redis.Password,
			DB:         cfg.Cache.Redis.DB,
			Instrument: cfg.Telemetry.Enabled,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Cache.Driver)
	}
}
