package db

import (
	"context"
	"fmt"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the configuration for the cache Redis connection
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117 - Redis connection password
	DB       int
	// Instrument enables redisotel tracing and metrics on the client
	Instrument bool
}

// NewRedisClient opens and pings a Redis client
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	logger := slogging.Get()
	logger.Debug("Initializing Redis connection to %s DB=%d", cfg.Addr, cfg.DB)

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        10,
		MinIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	})

	if cfg.Instrument {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Failed to ping Redis: %v", err)
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Debug("Redis connection established")

	return client, nil
}
