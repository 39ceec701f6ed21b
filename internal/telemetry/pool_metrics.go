package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// RegisterPoolMetrics reports the connection pool of sqlDB on every collection
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	open, err := meter.Int64ObservableGauge("db_connections_open",
		metric.WithDescription("Open connections, in use and idle"))
	if err != nil {
		return nil, fmt.Errorf("failed to create open connections gauge: %w", err)
	}
	inUse, err := meter.Int64ObservableGauge("db_connections_in_use",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-use connections gauge: %w", err)
	}
	idle, err := meter.Int64ObservableGauge("db_connections_idle",
		metric.WithDescription("Idle connections"))
	if err != nil {
		return nil, fmt.Errorf("failed to create idle connections gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_connection_waits_total",
		metric.WithDescription("Connections waited for"))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection wait counter: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(idle, int64(stats.Idle))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, idle, waits)
}
