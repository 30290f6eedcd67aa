// Package main provides the reticle-server CLI binary.
// It serves MCP requests over stdin/stdout with simulated processing latency.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/server"
)

func main() {
	name := flag.String("name", "mock-server", "Server identity reported in initialize results")
	minLatency := flag.Int("min-latency", config.DefaultToolCallMinLatencyMs, "Minimum simulated tool latency in ms")
	maxLatency := flag.Int("max-latency", config.DefaultToolCallMaxLatencyMs, "Maximum simulated tool latency in ms")
	readMinLatency := flag.Int("read-min-latency", config.DefaultReadMinLatencyMs, "Minimum simulated read latency in ms (list/read/get methods)")
	readMaxLatency := flag.Int("read-max-latency", config.DefaultReadMaxLatencyMs, "Maximum simulated read latency in ms (list/read/get methods)")
	seed := flag.Int64("seed", 0, "Random seed for latency jitter (0 = time-seeded)")
	verbose := flag.Bool("verbose", false, "Enable debug logging on stderr")

	otelMetrics := flag.Bool("otel-metrics", false, "Enable OpenTelemetry metrics")
	otelTraces := flag.Bool("otel-traces", false, "Enable OpenTelemetry tracing")
	otelExporter := flag.String("otel-exporter", "none", "Telemetry exporter: none, stdout, otlp-grpc, otlp-http")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	otelInsecure := flag.Bool("otel-insecure", false, "Disable TLS for OTLP connections")
	flag.Parse()

	if *minLatency < 0 || *maxLatency < *minLatency {
		fmt.Fprintln(os.Stderr, "Error: tool latency bounds must satisfy 0 <= min <= max")
		os.Exit(1)
	}
	if *readMinLatency < 0 || *readMaxLatency < *readMinLatency {
		fmt.Fprintln(os.Stderr, "Error: read latency bounds must satisfy 0 <= min <= max")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry := setupTelemetry(ctx, "reticle-server", *otelMetrics, *otelTraces, *otelExporter, *otelEndpoint, *otelInsecure)
	defer shutdownTelemetry()

	cfg := server.DefaultConfig()
	cfg.Name = *name
	cfg.ToolCallMinLatencyMs = *minLatency
	cfg.ToolCallMaxLatencyMs = *maxLatency
	cfg.ReadMinLatencyMs = *readMinLatency
	cfg.ReadMaxLatencyMs = *readMaxLatency
	cfg.Seed = *seed

	log := logging.NewRoleLogger(*name, *verbose)
	engine := server.New(cfg, os.Stdin, os.Stdout, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("interrupt received, stopping")
		cancel()
	}()

	log.Info("server started", "name", *name)
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func setupTelemetry(ctx context.Context, service string, metricsOn, tracesOn bool, exporter, endpoint string, insecure bool) func() {
	exp := otelx.ParseExporterType(exporter)

	var metrics *otelx.Metrics
	var tracer *otelx.Tracer

	if metricsOn {
		cfg := otelx.DefaultMetricsConfig()
		cfg.Enabled = true
		cfg.ServiceName = service
		cfg.ExporterType = exp
		cfg.OTLPEndpoint = endpoint
		cfg.OTLPInsecure = insecure
		m, err := otelx.NewMetrics(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: metrics disabled: %v\n", err)
		} else {
			metrics = m
			otelx.SetGlobalMetrics(m)
		}
	}

	if tracesOn {
		cfg := otelx.DefaultTracerConfig()
		cfg.Enabled = true
		cfg.ServiceName = service
		cfg.ExporterType = exp
		cfg.OTLPEndpoint = endpoint
		cfg.OTLPInsecure = insecure
		t, err := otelx.NewTracer(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: tracing disabled: %v\n", err)
		} else {
			tracer = t
			otelx.SetGlobalTracer(t)
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if metrics != nil {
			_ = metrics.Shutdown(ctx)
		}
		if tracer != nil {
			_ = tracer.Shutdown(ctx)
		}
	}
}
