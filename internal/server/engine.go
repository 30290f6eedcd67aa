// Package server implements the simulated MCP server role: it consumes
// requests from a line-oriented stream, dispatches them by method name, and
// emits synthetic responses with realistic service latency.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/catalog"
	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/transport"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// Config configures the server engine.
type Config struct {
	// Name is the server identity reported in initialize results and log lines.
	Name string

	// Latency bounds for simulated processing time, in milliseconds.
	ToolCallMinLatencyMs int
	ToolCallMaxLatencyMs int
	ReadMinLatencyMs     int
	ReadMaxLatencyMs     int

	// Seed parameterizes the latency jitter source. Zero means time-seeded.
	Seed int64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:                 "mock-server",
		ToolCallMinLatencyMs: config.DefaultToolCallMinLatencyMs,
		ToolCallMaxLatencyMs: config.DefaultToolCallMaxLatencyMs,
		ReadMinLatencyMs:     config.DefaultReadMinLatencyMs,
		ReadMaxLatencyMs:     config.DefaultReadMaxLatencyMs,
	}
}

// Engine is the server role state machine. State is confined to a single run:
// nothing is shared across engines and no locking is needed.
type Engine struct {
	cfg    *Config
	log    *logging.RoleLogger
	reader *transport.LineReader
	writer *transport.LineWriter
	picker *catalog.Picker

	// initialized flips once the initialize request is handled. Tracked for
	// observability only; it does not gate other methods.
	initialized bool
}

// New creates an engine reading requests from r and writing replies to w.
func New(cfg *Config, r io.Reader, w io.Writer, log *logging.RoleLogger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logging.NoopLogger()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		cfg:    cfg,
		log:    log,
		reader: transport.NewLineReader(r),
		writer: transport.NewLineWriter(w),
		picker: catalog.NewPicker(seed),
	}
}

// Initialized reports whether the initialize request has been handled.
func (e *Engine) Initialized() bool { return e.initialized }

// Run processes inbound messages until the peer closes the stream or the
// context is cancelled. Stream close is a clean shutdown, not an error.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Debug("server started, waiting for requests", "name", e.cfg.Name)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		env, line, err := e.reader.ReadEnvelope()
		if err != nil {
			if errors.Is(err, transport.ErrStreamClosed) {
				e.log.Debug("peer closed stream, shutting down")
				return nil
			}
			var parseErr *protocol.ParseError
			if errors.As(err, &parseErr) {
				e.log.SkippedLine(parseErr.Error())
				otelx.GetGlobalMetrics().RecordSkippedLine(ctx, "server", "invalid_json")
				continue
			}
			var violation *protocol.ViolationError
			if errors.As(err, &violation) {
				e.handleViolation(ctx, line, violation)
				continue
			}
			return fmt.Errorf("read: %w", err)
		}

		otelx.GetGlobalMetrics().RecordEnvelopeReceived(ctx, "server", env.Kind().String())

		switch env.Kind() {
		case protocol.KindRequest:
			if err := e.dispatch(ctx, env.Request); err != nil {
				return err
			}
		case protocol.KindNotification:
			e.handleNotification(env.Notification)
		default:
			// Responses addressed to a server role are noise; log and move on.
			e.log.Debug("ignoring non-request envelope", "kind", env.Kind().String())
		}
	}
}

// handleViolation surfaces a malformed-but-parseable message. When the
// message carried an id an Internal error response is sent; otherwise the
// fault is logged only, since there is nothing to address a reply to.
func (e *Engine) handleViolation(ctx context.Context, line []byte, violation *protocol.ViolationError) {
	e.log.SkippedLine(violation.Error())
	otelx.GetGlobalMetrics().RecordSkippedLine(ctx, "server", "protocol_violation")

	if id := extractID(line); id != "" {
		e.sendError(ctx, id, types.CodeInternalError, "Internal error", nil)
	}
}

func (e *Engine) handleNotification(n *types.Notification) {
	if n.Method == "notifications/initialized" {
		e.log.Debug("client ready")
		return
	}
	e.log.Debug("notification received", "method", n.Method)
}

func (e *Engine) dispatch(ctx context.Context, req *types.Request) error {
	e.log.Received("request", req.ID.String())

	ctx, span := otelx.GetGlobalTracer().StartDispatchSpan(ctx, req.Method, req.ID.String())
	defer span.End()

	handler, ok := e.handlers()[req.Method]
	if !ok {
		e.sendError(ctx, req.ID, types.CodeMethodNotFound, "Method not found: "+req.Method, nil)
		return nil
	}

	result, rpcErr := handler(ctx, req)
	if rpcErr != nil {
		e.sendError(ctx, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return nil
	}

	return e.sendResult(ctx, req.ID, result)
}

func (e *Engine) sendResult(ctx context.Context, id types.ID, result interface{}) error {
	env, err := resultEnvelope(id, result)
	if err != nil {
		e.sendError(ctx, id, types.CodeInternalError, "Internal error", nil)
		return nil
	}
	e.log.Sent("response", "", id.String())
	otelx.GetGlobalMetrics().RecordEnvelopeSent(ctx, "server", "response", "")
	return e.writer.Write(env)
}

func (e *Engine) sendError(ctx context.Context, id types.ID, code int, message string, data []byte) {
	env := protocol.NewErrorResponse(id, code, message, data)
	e.log.Sent("error", "", id.String())
	otelx.GetGlobalMetrics().RecordEnvelopeSent(ctx, "server", "error", "")
	if err := e.writer.Write(env); err != nil {
		e.log.Error("write error response failed", "error", err)
	}
}

// simulateLatency sleeps for a bounded random delay, returning early if the
// context is cancelled.
func (e *Engine) simulateLatency(ctx context.Context, minMs, maxMs int) {
	delay := e.picker.DurationJitterMs(minMs, maxMs)
	sleepWithContext(ctx, time.Duration(delay)*time.Millisecond)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
