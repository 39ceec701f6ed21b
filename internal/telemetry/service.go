package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
)

// Service owns the OpenTelemetry providers for one process
type Service struct {
	cfg            config.TelemetryConfig
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	registry       *prometheus.Registry
	logger         *slogging.Logger
}

type options struct {
	reader      sdkmetric.Reader
	traceWriter io.Writer
	spanSync    bool
}

// Option customises NewService
type Option func(*options)

// WithMetricReader replaces the configured metrics exporter with reader
func WithMetricReader(reader sdkmetric.Reader) Option {
	return func(o *options) { o.reader = reader }
}

// WithTraceWriter sends stdout traces to w and exports spans synchronously
func WithTraceWriter(w io.Writer) Option {
	return func(o *options) {
		o.traceWriter = w
		o.spanSync = true
	}
}

// NewService builds the providers described by cfg and installs them as the
// otel globals. A disabled config yields a Service backed by no-op providers.
func NewService(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (*Service, error) {
	o := options{traceWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Service{cfg: cfg, logger: slogging.Get()}
	if !cfg.Enabled {
		return s, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	if err := s.initMetrics(ctx, res, o); err != nil {
		return nil, err
	}
	if err := s.initTracing(ctx, res, o); err != nil {
		_ = s.Shutdown(ctx)
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	s.logger.Debug("Telemetry initialized: metrics=%s traces=%s", cfg.MetricsExporter, cfg.TracesExporter)
	return s, nil
}

func (s *Service) initMetrics(ctx context.Context, res *resource.Resource, o options) error {
	reader := o.reader
	if reader == nil {
		switch s.cfg.MetricsExporter {
		case "prometheus":
			s.registry = prometheus.NewRegistry()
			exporter, err := otelprom.New(otelprom.WithRegisterer(s.registry))
			if err != nil {
				return fmt.Errorf("failed to create prometheus exporter: %w", err)
			}
			reader = exporter
		case "otlp":
			exporter, err := otlpmetricgrpc.New(ctx, s.otlpMetricOptions()...)
			if err != nil {
				return fmt.Errorf("failed to create OTLP metric exporter: %w", err)
			}
			reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(s.cfg.MetricsInterval))
		case "", "none":
			return nil
		default:
			return fmt.Errorf("unsupported metrics exporter: %q", s.cfg.MetricsExporter)
		}
	}

	s.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(s.meterProvider)
	return nil
}

func (s *Service) otlpMetricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.cfg.OTLPEndpoint)}
	if s.cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}

func (s *Service) initTracing(ctx context.Context, res *resource.Resource, o options) error {
	var exporter sdktrace.SpanExporter
	switch s.cfg.TracesExporter {
	case "stdout":
		e, err := stdouttrace.New(stdouttrace.WithWriter(o.traceWriter))
		if err != nil {
			return fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		exporter = e
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.cfg.OTLPEndpoint)}
		if s.cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		e, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		exporter = e
	case "", "none":
		return nil
	default:
		return fmt.Errorf("unsupported traces exporter: %q", s.cfg.TracesExporter)
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	if o.spanSync {
		processor = sdktrace.NewSimpleSpanProcessor(exporter)
	}
	s.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(processor),
	)
	otel.SetTracerProvider(s.tracerProvider)
	return nil
}

// MeterProvider returns the SDK provider, or a no-op one when metrics are off
func (s *Service) MeterProvider() metric.MeterProvider {
	if s.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return s.meterProvider
}

// TracerProvider returns the SDK provider, or a no-op one when tracing is off
func (s *Service) TracerProvider() trace.TracerProvider {
	if s.tracerProvider == nil {
		return tracenoop.NewTracerProvider()
	}
	return s.tracerProvider
}

// MetricsHandler serves the Prometheus registry; nil unless the prometheus exporter is active
func (s *Service) MetricsHandler() http.Handler {
	if s.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// GormPlugins returns the tracing and metrics plugins to register on a connection
func (s *Service) GormPlugins(dbName string) ([]gorm.Plugin, error) {
	var plugins []gorm.Plugin
	if s.tracerProvider != nil {
		plugins = append(plugins, otelgorm.NewPlugin(
			otelgorm.WithDBName(dbName),
			otelgorm.WithTracerProvider(s.tracerProvider),
			otelgorm.WithoutQueryVariables(),
		))
	}
	if s.meterProvider != nil {
		m, err := NewGormMetrics(s.meterProvider.Meter(meterName), dbName)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, m)
	}
	return plugins, nil
}

// Shutdown flushes and stops every provider
func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error
	if s.tracerProvider != nil {
		errs = append(errs, s.tracerProvider.Shutdown(ctx))
	}
	if s.meterProvider != nil {
		errs = append(errs, s.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
