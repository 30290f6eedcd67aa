// Package main provides the reticle-agent CLI binary.
// It drives MCP traffic over stdin/stdout against a line-oriented server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/agent"
	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
)

func main() {
	id := flag.String("id", "agent", "Agent identity; prefixes every correlation id")
	mode := flag.String("mode", "realistic", "Traffic mode: realistic, stress")
	iterations := flag.Int("iterations", config.DefaultIterations, "Workflow iterations (realistic mode)")
	messages := flag.Int("messages", config.DefaultStressMessages, "Total requests to send (stress mode)")
	burstSize := flag.Int("burst-size", config.DefaultBurstSize, "Requests per burst (stress mode)")
	delay := flag.Duration("delay", config.DefaultOperationWait, "Delay between workflow iterations")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-seeded)")
	verbose := flag.Bool("verbose", false, "Enable debug logging on stderr")

	otelMetrics := flag.Bool("otel-metrics", false, "Enable OpenTelemetry metrics")
	otelTraces := flag.Bool("otel-traces", false, "Enable OpenTelemetry tracing")
	otelExporter := flag.String("otel-exporter", "none", "Telemetry exporter: none, stdout, otlp-grpc, otlp-http")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	otelInsecure := flag.Bool("otel-insecure", false, "Disable TLS for OTLP connections")
	flag.Parse()

	if *mode != "realistic" && *mode != "stress" {
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (want realistic or stress)\n", *mode)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry := setupTelemetry(ctx, "reticle-agent", *otelMetrics, *otelTraces, *otelExporter, *otelEndpoint, *otelInsecure)
	defer shutdownTelemetry()

	log := logging.NewRoleLogger(*id, *verbose)
	engine := agent.New(&agent.Config{ID: *id, Seed: *seed}, os.Stdin, os.Stdout, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("interrupt received, stopping")
		cancel()
	}()

	if _, err := engine.Initialize(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error during initialize: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	var err error
	switch *mode {
	case "realistic":
		err = engine.RunWorkflows(ctx, *iterations, *delay)
	case "stress":
		err = engine.RunStress(ctx, *messages, *burstSize)
	}
	engine.Terminate()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error during %s run: %v\n", *mode, err)
		os.Exit(1)
	}

	log.Info("run complete",
		"mode", *mode,
		"requests_sent", engine.IssuedIDs(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
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
