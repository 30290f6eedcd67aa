// Package agent implements the simulated MCP agent role: it issues requests
// and notifications over a line-oriented stream and blocks for replies,
// driving configurable interaction workflows against a peer server.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/catalog"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/transport"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// State tracks the engine lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateAwaitingResponse
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config configures the agent engine.
type Config struct {
	// ID is the agent identity; it prefixes every correlation id and tags
	// log lines.
	ID string

	// Seed parameterizes workflow and catalog randomness. Zero means
	// time-seeded.
	Seed int64
}

// Engine is the agent role state machine. Its call discipline is strictly
// sequential: one request is sent, then exactly one reply is read, before the
// next request is issued. This single-outstanding-request model is why Call
// accepts whichever reply arrives next without matching ids; it must not be
// kept as-is if concurrent or pipelined calls are ever introduced.
type Engine struct {
	cfg    *Config
	log    *logging.RoleLogger
	alloc  *protocol.IDAllocator
	reader *transport.LineReader
	writer *transport.LineWriter
	picker *catalog.Picker
	state  State
}

// New creates an engine writing requests to w and reading replies from r.
func New(cfg *Config, r io.Reader, w io.Writer, log *logging.RoleLogger) *Engine {
	if cfg == nil {
		cfg = &Config{ID: "test-agent"}
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
		alloc:  protocol.NewIDAllocator(cfg.ID),
		reader: transport.NewLineReader(r),
		writer: transport.NewLineWriter(w),
		picker: catalog.NewPicker(seed),
		state:  StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Initialize performs the MCP handshake: it sends the initialize request,
// blocks for one reply, and emits the initialized notification. A missing
// reply is tolerated and logged; the harness generates traffic, it does not
// assert correctness.
func (e *Engine) Initialize(ctx context.Context) (*protocol.Envelope, error) {
	e.state = StateInitializing
	e.log.Debug("initializing MCP session")

	params := types.InitializeParams{
		ProtocolVersion: protocol.DefaultProtocolVersion,
		Capabilities:    protocol.DefaultCapabilities(),
		ClientInfo: types.ClientInfo{
			Name:    "mock-agent-" + e.cfg.ID,
			Version: protocol.ClientVersion,
		},
	}

	reply, err := e.Call(ctx, "initialize", params)
	if err != nil {
		e.state = StateTerminated
		return nil, err
	}

	switch {
	case reply == nil:
		e.log.Warn("no response received for initialize")
	case reply.Kind() == protocol.KindResponse:
		var result types.InitializeResult
		if err := json.Unmarshal(reply.Response.Result, &result); err == nil {
			e.log.Debug("initialized", "server", result.ServerInfo.Name)
		}
	case reply.Kind() == protocol.KindError:
		e.log.Warn("initialize failed",
			"code", reply.Error.Error.Code,
			"message", reply.Error.Error.Message)
	}

	if err := e.Notify(ctx, "notifications/initialized", nil); err != nil {
		e.state = StateTerminated
		return reply, err
	}

	e.state = StateReady
	return reply, nil
}

// Call allocates the next correlation id, sends a request, and blocks for the
// next inbound message. It returns whichever of response, error response, or
// absence (nil on stream end) arrives; ids are deliberately not compared, per
// the engine's single-outstanding discipline.
func (e *Engine) Call(ctx context.Context, method string, params interface{}) (*protocol.Envelope, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	id := e.alloc.Next()
	env := protocol.NewRequest(id, method, raw)

	e.state = StateAwaitingResponse
	defer func() {
		if e.state == StateAwaitingResponse {
			e.state = StateReady
		}
	}()

	e.log.Sent("request", method, id.String())
	start := time.Now()
	if err := e.writer.Write(env); err != nil {
		e.state = StateTerminated
		return nil, err
	}
	otelx.GetGlobalMetrics().RecordEnvelopeSent(ctx, "agent", "request", method)

	reply, err := e.readReply(ctx)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	ok := err == nil && reply != nil && reply.Kind() == protocol.KindResponse
	otelx.GetGlobalMetrics().RecordCallLatency(ctx, method, latencyMs, ok)
	return reply, err
}

// Notify sends a notification; no reply is expected or read.
func (e *Engine) Notify(ctx context.Context, method string, params interface{}) error {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		raw = data
	}

	env := protocol.NewNotification(method, raw)
	e.log.Sent("notification", method, "")
	if err := e.writer.Write(env); err != nil {
		e.state = StateTerminated
		return err
	}
	otelx.GetGlobalMetrics().RecordEnvelopeSent(ctx, "agent", "notification", method)
	return nil
}

// readReply blocks for the next inbound line. Stream end and unparseable
// replies both surface as absence (nil, nil): the caller learns only that no
// usable reply arrived.
func (e *Engine) readReply(ctx context.Context) (*protocol.Envelope, error) {
	env, _, err := e.reader.ReadEnvelope()
	if err != nil {
		if errors.Is(err, transport.ErrStreamClosed) {
			e.state = StateTerminated
			return nil, nil
		}
		var parseErr *protocol.ParseError
		var violation *protocol.ViolationError
		if errors.As(err, &parseErr) || errors.As(err, &violation) {
			e.log.SkippedLine(err.Error())
			otelx.GetGlobalMetrics().RecordSkippedLine(ctx, "agent", "bad_reply")
			return nil, nil
		}
		e.state = StateTerminated
		return nil, err
	}

	e.log.Received(env.Kind().String(), env.CorrelationID().String())
	otelx.GetGlobalMetrics().RecordEnvelopeReceived(ctx, "agent", env.Kind().String())
	return env, nil
}

// Terminate marks the engine terminated.
func (e *Engine) Terminate() {
	e.state = StateTerminated
}

// IssuedIDs reports how many correlation ids this engine has allocated.
func (e *Engine) IssuedIDs() int64 {
	return e.alloc.Issued()
}
