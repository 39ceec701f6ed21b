package telemetry

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const (
	meterName = "github.com/apimgmt/mgmtrepo"
	startKey  = "mgmt:metrics:start"
)

// GormMetrics is a GORM plugin counting and timing every statement by
// operation, table and outcome
type GormMetrics struct {
	dbName     string
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewGormMetrics creates the plugin's instruments on meter
func NewGormMetrics(meter metric.Meter, dbName string) (*GormMetrics, error) {
	operations, err := meter.Int64Counter(
		"db_operations_total",
		metric.WithDescription("Total number of database operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"db_operation_duration_seconds",
		metric.WithDescription("Duration of database operations"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	return &GormMetrics{dbName: dbName, operations: operations, duration: duration}, nil
}

func (m *GormMetrics) Name() string {
	return "mgmt:metrics"
}

func (m *GormMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		anchor string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", "gorm:create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "gorm:query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "gorm:update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "gorm:delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "gorm:row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "gorm:raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("mgmt:metrics:before_"+h.op, start); err != nil {
			return fmt.Errorf("failed to register %s metrics callback: %w", h.anchor, err)
		}
		if err := h.after("mgmt:metrics:after_"+h.op, m.record(h.op)); err != nil {
			return fmt.Errorf("failed to register %s metrics callback: %w", h.anchor, err)
		}
	}
	return nil
}

func start(db *gorm.DB) {
	db.InstanceSet(startKey, time.Now())
}

func (m *GormMetrics) record(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		status := "ok"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("db.name", m.dbName),
			attribute.String("operation", op),
			attribute.String("table", db.Statement.Table),
			attribute.String("status", status),
		)
		ctx := db.Statement.Context
		m.operations.Add(ctx, 1, attrs)
		if v, ok := db.InstanceGet(startKey); ok {
			if began, ok := v.(time.Time); ok {
				m.duration.Record(ctx, time.Since(began).Seconds(), attrs)
			}
		}
	}
}
