package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerConfig holds configuration for the OpenTelemetry tracer.
type TracerConfig struct {
	// Enabled controls whether tracing is active. Default: false (no-op).
	Enabled bool

	// ServiceName is the name of the service for trace attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional attributes to add to all spans.
	Attributes map[string]string
}

// DefaultTracerConfig returns a default configuration with tracing disabled.
func DefaultTracerConfig() *TracerConfig {
	return &TracerConfig{
		Enabled:      false,
		ServiceName:  "mcp-reticle",
		ExporterType: ExporterNone,
	}
}

// Tracer wraps OpenTelemetry tracing with harness-specific helpers.
type Tracer struct {
	config         *TracerConfig
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	shutdown       func(context.Context) error
}

var (
	globalTracer   *Tracer
	globalTracerMu sync.RWMutex
)

// NewTracer creates a new Tracer with the given configuration.
func NewTracer(ctx context.Context, cfg *TracerConfig) (*Tracer, error) {
	if cfg == nil {
		cfg = DefaultTracerConfig()
	}

	t := &Tracer{config: cfg}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		t.tracerProvider = noop.NewTracerProvider()
		t.tracer = t.tracerProvider.Tracer(cfg.ServiceName)
		t.shutdown = func(context.Context) error { return nil }
		return t, nil
	}

	exporter, err := t.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := t.createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	t.tracerProvider = tp
	t.tracer = tp.Tracer(cfg.ServiceName)
	t.shutdown = tp.Shutdown

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return t, nil
}

func (t *Tracer) createExporter(ctx context.Context, cfg *TracerConfig) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

func (t *Tracer) createResource(cfg *TracerConfig) (*resource.Resource, error) {
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

// Shutdown gracefully shuts down the tracer, flushing any pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.shutdown != nil {
		return t.shutdown(ctx)
	}
	return nil
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t.config.Enabled && t.config.ExporterType != ExporterNone
}

// StartWorkflowSpan starts a span for one agent workflow iteration.
func (t *Tracer) StartWorkflowSpan(ctx context.Context, workflow string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "reticle.workflow."+workflow,
		trace.WithAttributes(
			attribute.String("reticle.workflow", workflow),
			attribute.Int("reticle.iteration", iteration),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartDispatchSpan starts a span for one server-side request dispatch.
func (t *Tracer) StartDispatchSpan(ctx context.Context, method string, id string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "reticle.dispatch."+method,
		trace.WithAttributes(
			attribute.String("reticle.method", method),
			attribute.String("reticle.correlation_id", id),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// RecordError records an error on the span with its harness error type.
func RecordError(span trace.Span, err error, errorType string) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", errorType))
}

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	globalTracerMu.Lock()
	defer globalTracerMu.Unlock()
	globalTracer = t

	if t != nil && t.Enabled() {
		otel.SetTracerProvider(t.tracerProvider)
	}
}

// GetGlobalTracer returns the global tracer instance, or a no-op tracer if
// none has been set.
func GetGlobalTracer() *Tracer {
	globalTracerMu.RLock()
	defer globalTracerMu.RUnlock()
	if globalTracer != nil {
		return globalTracer
	}
	return NoopTracer()
}

// NoopTracer returns a tracer that does nothing.
func NoopTracer() *Tracer {
	tp := noop.NewTracerProvider()
	return &Tracer{
		config:         DefaultTracerConfig(),
		tracerProvider: tp,
		tracer:         tp.Tracer("mcp-reticle"),
		shutdown:       func(context.Context) error { return nil },
	}
}
