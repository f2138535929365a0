package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
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

	"seafoodpulse/internal/config"
	"seafoodpulse/pkg/contracts"
)

const (
	ServiceName = "seafoodpulse"
	MeterName   = "seafoodpulse"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "otlp", "none"
	OTLPEndpoint   string
	MetricExporter string // "prometheus", "none"
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

// NewOTelConfig maps the telemetry section of the application config
func NewOTelConfig(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		MetricExporter: cfg.MetricExporter,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel sets up tracing and metrics according to cfg. Providers
// for a disabled signal fall back to no-op implementations.
func InitializeOTel(ctx context.Context, cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = NewOTelConfig(config.Default().Telemetry)
	}
	if logger == nil {
		logger = GetLogger()
	}

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := createResource(cfg)

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func createResource(cfg *OTelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	case "none", "":
		providers.Tracer = otel.Tracer(MeterName)
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
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		providers.Meter = noop.NewMeterProvider().Meter(MeterName)
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Operations metrics
	OperationExecutionsTotal   metric.Int64Counter
	OperationExecutionDuration metric.Float64Histogram
	OperationStepsTotal        metric.Int64Counter
	OperationStepDuration      metric.Float64Histogram
	OperationActiveOperations  metric.Int64UpDownCounter
	OperationErrors            metric.Int64Counter
	OperationCancellations     metric.Int64Counter

	// Pipeline metrics
	FilesDownloaded       metric.Int64Counter
	DownloadBytes         metric.Int64Counter
	DownloadFailures      metric.Int64Counter
	FilesProcessed        metric.Int64Counter
	RecordsExtracted      metric.Int64Counter
	FishingEventsIngested metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	var (
		m    BusinessMetrics
		errs []error
	)

	counter := func(name, desc string, opts ...metric.Int64CounterOption) metric.Int64Counter {
		c, err := meter.Int64Counter(name, append([]metric.Int64CounterOption{metric.WithDescription(desc)}, opts...)...)
		errs = append(errs, err)
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}
	gauge := func(name, desc string) metric.Int64UpDownCounter {
		g, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return g
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds")
	m.HTTPActiveRequests = gauge("http_active_requests", "Number of active HTTP requests")

	m.OperationExecutionsTotal = counter("operation_executions_total", "Total number of operation executions")
	m.OperationExecutionDuration = histogram("operation_execution_duration_seconds", "Operation execution duration in seconds")
	m.OperationStepsTotal = counter("operation_steps_total", "Total number of operation steps executed")
	m.OperationStepDuration = histogram("operation_step_duration_seconds", "Operation step execution duration in seconds")
	m.OperationActiveOperations = gauge("operation_active_operations", "Number of active operations")
	m.OperationErrors = counter("operation_errors_total", "Total number of operation errors")
	m.OperationCancellations = counter("operation_cancellations_total", "Total number of operation cancellations")

	m.FilesDownloaded = counter("scraper_files_downloaded_total", "Statistics files downloaded")
	m.DownloadBytes = counter("scraper_download_bytes_total", "Bytes written by the downloader", metric.WithUnit("By"))
	m.DownloadFailures = counter("scraper_download_failures_total", "Failed downloads")
	m.FilesProcessed = counter("processing_files_total", "Weekly workbooks processed")
	m.RecordsExtracted = counter("processing_records_extracted_total", "Market records extracted from workbooks")
	m.FishingEventsIngested = counter("fishing_events_ingested_total", "Fishing events flattened")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
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
		return fmt.Errorf("opentelemetry shutdown errors: %w", errors.Join(errs...))
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordOperationMetrics records metrics for operation execution
func RecordOperationMetrics(ctx context.Context, metrics *BusinessMetrics, operationID, operationType string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation.type", operationType),
	}

	metrics.OperationExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.OperationExecutionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, statusAttr(err == nil))...))

	if err != nil {
		metrics.OperationErrors.Add(ctx, 1,
			metric.WithAttributes(append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))...))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("operation.metrics_recorded",
			trace.WithAttributes(
				attribute.String("operation.id", operationID),
				attribute.Bool("success", err == nil),
				attribute.Float64("duration_seconds", duration.Seconds()),
			))
	}
}

// RecordOperationStepMetrics records metrics for operation step execution
func RecordOperationStepMetrics(ctx context.Context, metrics *BusinessMetrics, stepID string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("step.id", stepID)}
	metrics.OperationStepsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.OperationStepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, statusAttr(success))...))
}

// RecordActiveOperationChange records changes in active operation count
func RecordActiveOperationChange(ctx context.Context, metrics *BusinessMetrics, delta int64, operationType string) {
	if metrics == nil {
		return
	}
	metrics.OperationActiveOperations.Add(ctx, delta,
		metric.WithAttributes(attribute.String("operation.type", operationType)))
}

// RecordOperationCancellation records an operation cancellation
func RecordOperationCancellation(ctx context.Context, metrics *BusinessMetrics, operationType, reason string) {
	if metrics == nil {
		return
	}
	metrics.OperationCancellations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation.type", operationType),
		attribute.String("reason", reason),
	))
}

// RecordDownload records the outcome of one file download
func RecordDownload(ctx context.Context, metrics *BusinessMetrics, fileType string, bytes int64, err error) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("file.type", fileType))
	if err != nil {
		metrics.DownloadFailures.Add(ctx, 1, attrs)
		return
	}
	metrics.FilesDownloaded.Add(ctx, 1, attrs)
	metrics.DownloadBytes.Add(ctx, bytes, attrs)
}

// RecordExtraction records one processed workbook and its record count
func RecordExtraction(ctx context.Context, metrics *BusinessMetrics, category string, records int) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("category", category))
	metrics.FilesProcessed.Add(ctx, 1, attrs)
	metrics.RecordsExtracted.Add(ctx, int64(records), attrs)
}
