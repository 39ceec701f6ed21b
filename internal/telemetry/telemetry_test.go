package telemetry

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMain(m *testing.M) {
	_ = slogging.Initialize(slogging.Config{Level: slogging.LogLevelError, Output: io.Discard})
	os.Exit(m.Run())
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func attr(set attribute.Set, key string) string {
	v, _ := set.Value(attribute.Key(key))
	return v.AsString()
}

func counted(t *testing.T, m metricdata.Metrics, op, table, status string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var n int64
	for _, dp := range sum.DataPoints {
		if attr(dp.Attributes, "operation") == op && attr(dp.Attributes, "table") == table && attr(dp.Attributes, "status") == status {
			n += dp.Value
		}
	}
	return n
}

func TestGormMetricsCountsOperations(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	plugin, err := NewGormMetrics(mp.Meter("test"), "mgmt")
	require.NoError(t, err)

	tdb := db.MustCreateTestDB(t)
	require.NoError(t, tdb.DB.Use(plugin))

	tag := models.Tag{ID: "t1", Name: "T", ReferenceID: "DEFAULT", ReferenceType: "ORGANIZATION"}
	require.NoError(t, tdb.DB.Create(&tag).Error)
	require.Error(t, tdb.DB.Create(&tag).Error)

	var tags []models.Tag
	require.NoError(t, tdb.DB.Find(&tags).Error)
	require.NoError(t, tdb.DB.Where("id = ?", "t1").Delete(&models.Tag{}).Error)

	metrics := collect(t, reader)
	ops := metrics["db_operations_total"]
	assert.Equal(t, int64(1), counted(t, ops, "create", "tags", "ok"))
	assert.Equal(t, int64(1), counted(t, ops, "create", "tags", "error"))
	assert.Equal(t, int64(1), counted(t, ops, "query", "tags", "ok"))
	assert.Equal(t, int64(1), counted(t, ops, "delete", "tags", "ok"))

	hist, ok := metrics["db_operation_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var samples uint64
	for _, dp := range hist.DataPoints {
		samples += dp.Count
	}
	assert.Equal(t, uint64(4), samples)
}

func TestRegisterPoolMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tdb := db.MustCreateTestDB(t)
	sqlDB, err := tdb.DB.DB()
	require.NoError(t, err)

	reg, err := RegisterPoolMetrics(mp.Meter("test"), sqlDB)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	metrics := collect(t, reader)
	gauge, ok := metrics["db_connections_open"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)
}

func TestDisabledServiceIsNoop(t *testing.T) {
	s, err := NewService(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, s.MetricsHandler())
	assert.NotNil(t, s.MeterProvider())
	assert.NotNil(t, s.TracerProvider())

	plugins, err := s.GormPlugins("mgmt")
	require.NoError(t, err)
	assert.Empty(t, plugins)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestPrometheusExporterServesGormMetrics(t *testing.T) {
	ctx := context.Background()
	s, err := NewService(ctx, config.TelemetryConfig{
		Enabled:         true,
		ServiceName:     "mgmtrepo-test",
		MetricsExporter: "prometheus",
		TracesExporter:  "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(ctx) })

	plugins, err := s.GormPlugins("mgmt")
	require.NoError(t, err)
	require.Len(t, plugins, 1)

	tdb := db.MustCreateTestDB(t)
	require.NoError(t, tdb.DB.Use(plugins[0]))
	var n int64
	require.NoError(t, tdb.DB.Model(&models.Organization{}).Count(&n).Error)

	handler := s.MetricsHandler()
	require.NotNil(t, handler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "db_operations")
	assert.Contains(t, rec.Body.String(), `table="organizations"`)
}

func TestStdoutTracingRecordsQuerySpans(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	reader := sdkmetric.NewManualReader()
	s, err := NewService(ctx, config.TelemetryConfig{
		Enabled:         true,
		ServiceName:     "mgmtrepo-test",
		MetricsExporter: "prometheus",
		TracesExporter:  "stdout",
	}, WithMetricReader(reader), WithTraceWriter(&out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(ctx) })
	assert.Nil(t, s.MetricsHandler(), "an injected reader replaces the prometheus exporter")

	plugins, err := s.GormPlugins("mgmt")
	require.NoError(t, err)
	require.Len(t, plugins, 2)

	tdb := db.MustCreateTestDB(t)
	for _, p := range plugins {
		require.NoError(t, tdb.DB.Use(p))
	}
	var orgs []models.Organization
	require.NoError(t, tdb.DB.WithContext(ctx).Find(&orgs).Error)

	assert.Contains(t, out.String(), "organizations")
	assert.Contains(t, collect(t, reader), "db_operations_total")
}

func TestUnsupportedExporters(t *testing.T) {
	ctx := context.Background()
	_, err := NewService(ctx, config.TelemetryConfig{Enabled: true, MetricsExporter: "statsd"})
	assert.Error(t, err)

	_, err = NewService(ctx, config.TelemetryConfig{Enabled: true, MetricsExporter: "none", TracesExporter: "zipkin"})
	assert.Error(t, err)
}
