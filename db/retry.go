package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"gorm.io/gorm"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig returns reasonable defaults for transaction retries
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// WithRetryableTransaction runs fn inside a GORM transaction and retries the whole
// transaction on transient failures. Repositories never retry on their own; this is
// for callers (maintenance commands) that opt in.
func WithRetryableTransaction(ctx context.Context, db *gorm.DB, cfg RetryConfig, fn func(tx *gorm.DB) error) error {
	logger := slogging.Get()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// #nosec G115 - attempt is in [1, MaxRetries-1]
			delay := cfg.BaseDelay * time.Duration(1<<uint(attempt-1))
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			logger.Debug("Retrying transaction in %v (attempt %d/%d)", delay, attempt+1, cfg.MaxRetries)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err
		logger.Warn("Transaction failed with retryable error (attempt %d/%d): %v", attempt+1, cfg.MaxRetries, err)
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

var retryablePatterns = []string{
	"driver: bad connection",
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no connection available",
	"connection timed out",
	"unexpected eof",
	"server closed",
	"invalid connection",
	"connection unexpectedly closed",
	// PostgreSQL
	"could not serialize access",
	"deadlock detected",
	"the database system is starting up",
	"terminating connection due to administrator command",
	// SQLite
	"database is locked",
	"database table is locked",
	// MySQL / SQL Server
	"lock wait timeout exceeded",
	"was deadlocked on lock resources",
}

// IsRetryableError reports whether err is a transient connection or locking failure
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
