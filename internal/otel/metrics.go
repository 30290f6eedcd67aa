// Package otel provides OpenTelemetry metrics and tracing integration for the
// reticle traffic harness.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ExporterType defines the type of telemetry exporter to use.
type ExporterType string

const (
	// ExporterNone disables export (no-op).
	ExporterNone ExporterType = "none"
	// ExporterStdout exports to stdout (useful for debugging).
	ExporterStdout ExporterType = "stdout"
	// ExporterOTLPGRPC exports via OTLP over gRPC.
	ExporterOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterOTLPHTTP exports via OTLP over HTTP.
	ExporterOTLPHTTP ExporterType = "otlp-http"
)

// ParseExporterType maps a CLI flag value to an ExporterType.
func ParseExporterType(s string) ExporterType {
	switch s {
	case "stdout":
		return ExporterStdout
	case "otlp-grpc":
		return ExporterOTLPGRPC
	case "otlp-http":
		return ExporterOTLPHTTP
	default:
		return ExporterNone
	}
}

// MetricsConfig holds configuration for the OpenTelemetry metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active. Default: false (no-op).
	Enabled bool

	// ServiceName is the name of the service for metric attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional attributes to add to all metrics.
	Attributes map[string]string
}

// DefaultMetricsConfig returns a default configuration with metrics disabled.
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:      false,
		ServiceName:  "mcp-reticle",
		ExporterType: ExporterNone,
	}
}

// Metrics wraps OpenTelemetry metrics with harness-specific helpers.
type Metrics struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error

	envelopesSent     metric.Int64Counter
	envelopesReceived metric.Int64Counter
	callLatency       metric.Float64Histogram
	linesSkipped      metric.Int64Counter
	activeStreams     metric.Int64UpDownCounter
	streamEventsSent  metric.Int64Counter
}

var (
	globalMetrics   *Metrics
	globalMetricsMu sync.RWMutex
)

// NewMetrics creates a new Metrics instance with the given configuration.
func NewMetrics(ctx context.Context, cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultMetricsConfig()
	}

	m := &Metrics{config: cfg}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		// No-op meter when disabled
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	exporter, err := m.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	res, err := m.createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}

	return m, nil
}

// createExporter creates the appropriate metrics exporter based on configuration.
func (m *Metrics) createExporter(ctx context.Context, cfg *MetricsConfig) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdoutmetric.New()

	case ExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// createResource creates the OpenTelemetry resource with service information.
func (m *Metrics) createResource(cfg *MetricsConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

// registerInstruments creates and registers all metric instruments.
func (m *Metrics) registerInstruments() error {
	var err error

	m.envelopesSent, err = m.meter.Int64Counter(
		"reticle.envelopes.sent",
		metric.WithDescription("Count of protocol envelopes written to the wire"),
	)
	if err != nil {
		return fmt.Errorf("failed to create envelopes sent counter: %w", err)
	}

	m.envelopesReceived, err = m.meter.Int64Counter(
		"reticle.envelopes.received",
		metric.WithDescription("Count of protocol envelopes read from the wire"),
	)
	if err != nil {
		return fmt.Errorf("failed to create envelopes received counter: %w", err)
	}

	m.callLatency, err = m.meter.Float64Histogram(
		"reticle.call.latency",
		metric.WithDescription("Round-trip latency of agent calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create call latency histogram: %w", err)
	}

	m.linesSkipped, err = m.meter.Int64Counter(
		"reticle.lines.skipped",
		metric.WithDescription("Count of inbound lines skipped as non-protocol traffic"),
	)
	if err != nil {
		return fmt.Errorf("failed to create skipped lines counter: %w", err)
	}

	m.activeStreams, err = m.meter.Int64UpDownCounter(
		"reticle.sse.connections.active",
		metric.WithDescription("Number of active SSE subscriber connections"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active streams counter: %w", err)
	}

	m.streamEventsSent, err = m.meter.Int64Counter(
		"reticle.sse.events.sent",
		metric.WithDescription("Count of SSE events written, by event type"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stream events counter: %w", err)
	}

	return nil
}

// RecordEnvelopeSent records one outbound envelope.
func (m *Metrics) RecordEnvelopeSent(ctx context.Context, role, kind, method string) {
	if m.envelopesSent == nil {
		return
	}
	m.envelopesSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("kind", kind),
		attribute.String("method", method),
	))
}

// RecordEnvelopeReceived records one inbound envelope.
func (m *Metrics) RecordEnvelopeReceived(ctx context.Context, role, kind string) {
	if m.envelopesReceived == nil {
		return
	}
	m.envelopesReceived.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("kind", kind),
	))
}

// RecordCallLatency records the round-trip latency of one agent call.
func (m *Metrics) RecordCallLatency(ctx context.Context, method string, latencyMs float64, ok bool) {
	if m.callLatency == nil {
		return
	}
	m.callLatency.Record(ctx, latencyMs, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", ok),
	))
}

// RecordSkippedLine records one inbound line discarded as non-protocol traffic.
func (m *Metrics) RecordSkippedLine(ctx context.Context, role, reason string) {
	if m.linesSkipped == nil {
		return
	}
	m.linesSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("reason", reason),
	))
}

// AddActiveStream adjusts the active SSE connection gauge by delta (+1/-1).
func (m *Metrics) AddActiveStream(ctx context.Context, delta int64) {
	if m.activeStreams == nil {
		return
	}
	m.activeStreams.Add(ctx, delta)
}

// RecordStreamEvent records one SSE event written.
func (m *Metrics) RecordStreamEvent(ctx context.Context, eventType string) {
	if m.streamEventsSent == nil {
		return
	}
	m.streamEventsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// Enabled returns whether metrics collection is active.
func (m *Metrics) Enabled() bool {
	return m.config.Enabled && m.config.ExporterType != ExporterNone
}

// SetGlobalMetrics sets the global metrics instance.
func SetGlobalMetrics(m *Metrics) {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the global metrics instance, or a no-op instance
// if none has been set.
func GetGlobalMetrics() *Metrics {
	globalMetricsMu.RLock()
	defer globalMetricsMu.RUnlock()
	if globalMetrics != nil {
		return globalMetrics
	}
	m, _ := NewMetrics(context.Background(), DefaultMetricsConfig())
	return m
}
