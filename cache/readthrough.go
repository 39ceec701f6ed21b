package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const meterName = "github.com/apimgmt/mgmtrepo/cache"

// readThrough serves single-row finds from the backend and fills it on a hit in the
// database. Backend failures are logged and fall through to the database.
type readThrough[T any] struct {
	backend  Backend
	ttl      time.Duration
	prefix   string
	entity   string
	group    singleflight.Group
	logger   *slogging.Logger
	requests metric.Int64Counter

	// evictions counts evicts per key while a load of that key is in flight,
	// so a load that raced an evict does not store what it read
	mu        sync.Mutex
	inflight  map[string]int
	evictions map[string]uint64
}

func newReadThrough[T any](backend Backend, opts Options, entity string) *readThrough[T] {
	logger := slogging.Get()
	requests, err := otel.Meter(meterName).Int64Counter("cache_requests_total",
		metric.WithDescription("Cache lookups by entity and result"))
	if err != nil {
		logger.Warn("cache: failed to create request counter: %v", err)
	}
	return &readThrough[T]{
		backend:   backend,
		ttl:       opts.TTL,
		prefix:    opts.KeyPrefix + entity + ":",
		entity:    entity,
		logger:    logger,
		requests:  requests,
		inflight:  make(map[string]int),
		evictions: make(map[string]uint64),
	}
}

func (c *readThrough[T]) key(id string) string {
	return c.prefix + id
}

func (c *readThrough[T]) record(ctx context.Context, result string) {
	if c.requests == nil {
		return
	}
	c.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", c.entity),
		attribute.String("result", result),
	))
}

func (c *readThrough[T]) get(ctx context.Context, id string, load func(context.Context) (repository.Optional[T], error)) (repository.Optional[T], error) {
	key := c.key(id)

	b, ok, err := c.backend.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("cache: get %s failed, reading through: %v", key, err)
	case ok:
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			c.record(ctx, "hit")
			return repository.Some(v), nil
		}
		c.logger.Warn("cache: dropping undecodable entry %s", key)
	}
	c.record(ctx, "miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		generation := c.beginLoad(key)
		found, err := load(ctx)
		stale := c.endLoad(key, generation)
		if err != nil {
			return nil, err
		}
		if value, ok := found.Get(); ok {
			if stale {
				c.logger.Debug("cache: %s was evicted during load, not storing", key)
			} else {
				c.store(ctx, key, value)
			}
		}
		return found, nil
	})
	if err != nil {
		return repository.None[T](), err
	}
	return v.(repository.Optional[T]), nil
}

func (c *readThrough[T]) beginLoad(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]++
	return c.evictions[key]
}

// endLoad reports whether key was evicted since the matching beginLoad
func (c *readThrough[T]) endLoad(key string, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	stale := c.evictions[key] != generation
	c.inflight[key]--
	if c.inflight[key] == 0 {
		delete(c.inflight, key)
		delete(c.evictions, key)
	}
	return stale
}

func (c *readThrough[T]) store(ctx context.Context, key string, value T) {
	b, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache: failed to encode %s: %v", key, err)
		return
	}
	if err := c.backend.Set(ctx, key, b, c.ttl); err != nil {
		c.logger.Warn("cache: set %s failed: %v", key, err)
		return
	}
	c.logger.Debug("cache: stored %s for %v", key, c.ttl)
}

func (c *readThrough[T]) evict(ctx context.Context, id string) {
	key := c.key(id)
	c.mu.Lock()
	if c.inflight[key] > 0 {
		c.evictions[key]++
	}
	c.mu.Unlock()
	c.group.Forget(key)
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.Warn("cache: evict %s failed: %v", key, err)
	}
}
