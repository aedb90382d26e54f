package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"avdeck/internal/config"
	apperrors "avdeck/internal/errors"
)

const (
	MeterName = "avdeck"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// OTelConfigFrom maps the telemetry section of the application config
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	metricExporter := "none"
	if cfg.MetricsEnabled {
		metricExporter = "prometheus"
	}

	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		TraceExporter:  cfg.TracingExporter,
		MetricExporter: metricExporter,
		EnableMetrics:  cfg.MetricsEnabled,
		EnableTracing:  cfg.TracingEnabled,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes tracing and metrics providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Telemetry)
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// TracerOrGlobal returns the configured tracer, or the global (no-op by default) one
func (p *OTelProviders) TracerOrGlobal() trace.Tracer {
	if p != nil && p.Tracer != nil {
		return p.Tracer
	}
	return otel.Tracer(MeterName)
}

// DeckMetrics creates the deck metrics on the configured meter, or no-op instruments
func (p *OTelProviders) DeckMetrics() (*DeckMetrics, error) {
	if p == nil || p.Meter == nil {
		return NoopDeckMetrics(), nil
	}
	return NewDeckMetrics(p.Meter)
}

// DeckMetrics holds the pipeline and server instruments
type DeckMetrics struct {
	// Build metrics
	BuildsTotal   metric.Int64Counter
	BuildDuration metric.Float64Histogram

	// Step metrics
	StepsTotal   metric.Int64Counter
	StepDuration metric.Float64Histogram
	StepErrors   metric.Int64Counter
	RowsProduced metric.Int64Counter
	NulledCells  metric.Int64Counter

	// Exchange-rate metrics
	RateFetches metric.Int64Counter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
}

// NewDeckMetrics creates the deck instruments on meter
func NewDeckMetrics(meter metric.Meter) (*DeckMetrics, error) {
	m := &DeckMetrics{}
	var err error

	if m.BuildsTotal, err = meter.Int64Counter("deck_builds_total",
		metric.WithDescription("Total number of deck builds")); err != nil {
		return nil, err
	}
	if m.BuildDuration, err = meter.Float64Histogram("deck_build_duration_seconds",
		metric.WithDescription("Deck build duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.StepsTotal, err = meter.Int64Counter("deck_steps_total",
		metric.WithDescription("Total number of deck steps executed")); err != nil {
		return nil, err
	}
	if m.StepDuration, err = meter.Float64Histogram("deck_step_duration_seconds",
		metric.WithDescription("Deck step duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.StepErrors, err = meter.Int64Counter("deck_step_errors_total",
		metric.WithDescription("Total number of failed deck steps")); err != nil {
		return nil, err
	}
	if m.RowsProduced, err = meter.Int64Counter("deck_rows_produced_total",
		metric.WithDescription("Rows in datasets produced by deck steps")); err != nil {
		return nil, err
	}
	if m.NulledCells, err = meter.Int64Counter("deck_coercion_nulled_cells_total",
		metric.WithDescription("Cells replaced by null under the null_on_error policy")); err != nil {
		return nil, err
	}
	if m.RateFetches, err = meter.Int64Counter("exchange_rate_fetches_total",
		metric.WithDescription("Exchange-rate lookups by outcome")); err != nil {
		return nil, err
	}
	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}

	return m, nil
}

// NoopDeckMetrics returns instruments that record nothing
func NoopDeckMetrics() *DeckMetrics {
	m, _ := NewDeckMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordBuild records one completed or failed deck build
func (m *DeckMetrics) RecordBuild(ctx context.Context, deck string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("deck", deck), statusAttr(err))
	m.BuildsTotal.Add(ctx, 1, attrs)
	m.BuildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one deck step execution
func (m *DeckMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("step.id", stepID)}

	m.StepsTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, statusAttr(err))...))
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(append(attrs, statusAttr(err))...))

	if err != nil {
		m.StepErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error.type", errorTypeName(err)))...))
		return
	}
	m.RowsProduced.Add(ctx, int64(rows), metric.WithAttributes(attrs...))
}

// RecordNulledCells records cells replaced by null during coercion
func (m *DeckMetrics) RecordNulledCells(ctx context.Context, stepID string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NulledCells.Add(ctx, int64(n), metric.WithAttributes(attribute.String("step.id", stepID)))
}

// RecordRateFetch records one exchange-rate lookup. outcome is "hit", "fetched" or "error".
func (m *DeckMetrics) RecordRateFetch(ctx context.Context, base, outcome string) {
	if m == nil {
		return
	}
	m.RateFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("base", base),
		attribute.String("outcome", outcome)))
}

// RecordHTTPRequest records one served request
func (m *DeckMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCode(status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// errorTypeName returns a low-cardinality label for err
func errorTypeName(err error) string {
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	return fmt.Sprintf("%T", err)
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

