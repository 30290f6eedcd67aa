// Package main provides the reticle-sseserver CLI binary.
// It serves a rehearsed MCP event stream over Server-Sent Events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/sseserver"
)

func main() {
	addr := flag.String("addr", fmt.Sprintf("127.0.0.1:%d", config.DefaultSSEPort), "HTTP server address")
	name := flag.String("name", "mock-sse-server", "Server identity reported in the streamed initialize result")
	iterations := flag.Int("iterations", config.DefaultSSEIterations, "Tool-call responses per connection")
	delay := flag.Duration("delay", config.DefaultSSEDelay, "Delay between streamed events")
	heartbeat := flag.Duration("heartbeat", config.DefaultHeartbeatEvery, "Heartbeat interval after the sequence completes")
	seed := flag.Int64("seed", 0, "Random seed for tool selection (0 = time-seeded)")
	verbose := flag.Bool("verbose", false, "Enable debug logging on stderr")

	otelMetrics := flag.Bool("otel-metrics", false, "Enable OpenTelemetry metrics")
	otelExporter := flag.String("otel-exporter", "none", "Telemetry exporter: none, stdout, otlp-grpc, otlp-http")
	otelEndpoint := flag.String("otel-endpoint", "", "OTLP endpoint (e.g., localhost:4317)")
	otelInsecure := flag.Bool("otel-insecure", false, "Disable TLS for OTLP connections")
	flag.Parse()

	ctx := context.Background()

	var metrics *otelx.Metrics
	if *otelMetrics {
		mcfg := otelx.DefaultMetricsConfig()
		mcfg.Enabled = true
		mcfg.ServiceName = "reticle-sseserver"
		mcfg.ExporterType = otelx.ParseExporterType(*otelExporter)
		mcfg.OTLPEndpoint = *otelEndpoint
		mcfg.OTLPInsecure = *otelInsecure
		m, err := otelx.NewMetrics(ctx, mcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: metrics disabled: %v\n", err)
		} else {
			metrics = m
			otelx.SetGlobalMetrics(m)
		}
	}

	cfg := sseserver.DefaultConfig()
	cfg.Addr = *addr
	cfg.Name = *name
	cfg.Iterations = *iterations
	cfg.Delay = *delay
	cfg.HeartbeatEvery = *heartbeat
	cfg.Seed = *seed

	log := logging.NewRoleLogger(*name, *verbose)
	srv := sseserver.New(cfg, log)

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting SSE server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("SSE server listening on %s\n", srv.Addr())
	fmt.Printf("Event stream: %s\n", srv.EventsURL())
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	srv.Stop(shutdownCtx)
	if metrics != nil {
		_ = metrics.Shutdown(shutdownCtx)
	}
	fmt.Println("SSE server stopped")
}
