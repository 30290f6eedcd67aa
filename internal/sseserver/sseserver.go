// Package sseserver implements the push-only event-stream role: a mock MCP
// server that streams a rehearsed message sequence to each subscriber over
// Server-Sent Events, then keeps the connection alive with heartbeats.
package sseserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azerzeki/mcp-reticle/internal/catalog"
	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/logging"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/sysinfo"
	"github.com/azerzeki/mcp-reticle/internal/transport"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// Config configures the SSE server.
type Config struct {
	Addr           string
	Name           string
	Iterations     int
	Delay          time.Duration
	HeartbeatEvery time.Duration
	Seed           int64
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "127.0.0.1:0",
		Name:           "mock-sse-server",
		Iterations:     config.DefaultSSEIterations,
		Delay:          config.DefaultSSEDelay,
		HeartbeatEvery: config.DefaultHeartbeatEvery,
	}
}

// Server is the SSE server interface.
type Server interface {
	Start() error
	Stop(ctx context.Context)
	Addr() string
	EventsURL() string
}

// New creates a new SSE server.
func New(cfg *Config, log *logging.RoleLogger) Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logging.NoopLogger()
	}
	return &sseServer{cfg: cfg, log: log}
}

// StartTestServer starts a server with defaults and returns cleanup.
func StartTestServer() (server Server, cleanup func()) {
	cfg := DefaultConfig()
	cfg.Delay = 0
	cfg.HeartbeatEvery = 50 * time.Millisecond
	srv := New(cfg, nil)
	if err := srv.Start(); err != nil {
		return srv, func() {}
	}
	cleanup = func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		srv.Stop(ctx)
	}
	return srv, cleanup
}

type sseServer struct {
	cfg        *Config
	log        *logging.RoleLogger
	httpServer *http.Server
	listener   net.Listener
	addr       string
}

func (s *sseServer) Start() error {
	ln, err := net.Listen("tcp", normalizeAddr(s.cfg.Addr))
	if err != nil {
		return err
	}
	s.listener = ln
	s.addr = ln.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/events", s.handleEvents)

	s.httpServer = &http.Server{Handler: mux}

	go func() {
		_ = s.httpServer.Serve(ln)
	}()

	return nil
}

func (s *sseServer) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	_ = s.httpServer.Shutdown(ctx)
}

func (s *sseServer) Addr() string { return s.addr }

func (s *sseServer) EventsURL() string {
	if s.addr == "" {
		return ""
	}
	return "http://" + s.addr + "/events"
}

func (s *sseServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]interface{}{
		"name":      s.cfg.Name,
		"version":   protocol.ClientVersion,
		"transport": "SSE (Server-Sent Events)",
		"endpoints": map[string]string{
			"sse":    "/events",
			"health": "/health",
		},
		"config": map[string]interface{}{
			"iterations":  s.cfg.Iterations,
			"delayMs":     s.cfg.Delay.Milliseconds(),
			"heartbeatMs": s.cfg.HeartbeatEvery.Milliseconds(),
		},
	})
}

func (s *sseServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"system":    sysinfo.Collect(),
	})
}

// handleEvents streams the rehearsed MCP sequence to one subscriber, then
// emits heartbeats until the client disconnects. Every connection gets its
// own event-id sequence starting at 1; connections share no state.
func (s *sseServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	connID := uuid.NewString()
	s.log.Debug("client connected", "conn_id", connID, "remote", r.RemoteAddr)

	ctx := r.Context()
	metrics := otelx.GetGlobalMetrics()
	metrics.AddActiveStream(ctx, 1)
	defer metrics.AddActiveStream(ctx, -1)

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	session := transport.NewStreamSession(w, flusher)
	if err := s.streamRehearsedSequence(ctx, session); err != nil {
		s.log.Debug("client disconnected during sequence", "conn_id", connID)
		return
	}

	s.log.Debug("entering heartbeat mode", "conn_id", connID)
	ticker := time.NewTicker(s.cfg.HeartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("client disconnected", "conn_id", connID, "events", session.EventsSent())
			return
		case <-ticker.C:
			payload := map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Unix(),
			}
			if err := session.SendJSON(transport.EventTypeHeartbeat, payload); err != nil {
				return
			}
			metrics.RecordStreamEvent(ctx, transport.EventTypeHeartbeat)
		}
	}
}

// streamRehearsedSequence pushes the fixed opening sequence: initialize
// response, tools/list response, resources/list response, N tool-call
// response/progress pairs, then a short burst of log notifications.
func (s *sseServer) streamRehearsedSequence(ctx context.Context, session *transport.StreamSession) error {
	metrics := otelx.GetGlobalMetrics()
	picker := newSeededPicker(s.cfg.Seed)

	sendResponse := func(id int64, result interface{}) error {
		payload, err := json.Marshal(result)
		if err != nil {
			return err
		}
		env := protocol.NewResponse(types.IDFromInt(id), payload)
		if err := session.SendEnvelope(transport.EventTypeResponse, env); err != nil {
			return err
		}
		metrics.RecordStreamEvent(ctx, transport.EventTypeResponse)
		return s.wait(ctx, s.cfg.Delay)
	}

	sendNotification := func(method string, params interface{}, delay time.Duration) error {
		payload, err := json.Marshal(params)
		if err != nil {
			return err
		}
		env := protocol.NewNotification(method, payload)
		if err := session.SendEnvelope(transport.EventTypeNotification, env); err != nil {
			return err
		}
		metrics.RecordStreamEvent(ctx, transport.EventTypeNotification)
		return s.wait(ctx, delay)
	}

	// 1-3: handshake and catalog responses.
	if err := sendResponse(1, types.InitializeResult{
		ProtocolVersion: protocol.DefaultProtocolVersion,
		Capabilities:    protocol.DefaultCapabilities(),
		ServerInfo:      types.ServerInfo{Name: s.cfg.Name, Version: "1.0.0"},
	}); err != nil {
		return err
	}
	if err := sendResponse(2, types.ToolsListResult{Tools: catalog.Tools()}); err != nil {
		return err
	}
	if err := sendResponse(3, types.ResourcesListResult{Resources: catalog.Resources()}); err != nil {
		return err
	}

	// 4: generated tool-call responses with paired progress notifications.
	for i := 0; i < s.cfg.Iterations; i++ {
		tool := picker.ToolName()
		result := types.ToolsCallResult{
			Content: []types.ToolContent{
				{Type: "text", Text: fmt.Sprintf("Simulated %s result", tool)},
			},
		}
		if err := sendResponse(int64(4+i), result); err != nil {
			return err
		}

		progress := (i + 1) * 100 / s.cfg.Iterations
		if err := sendNotification("notifications/progress", types.ProgressParams{
			Progress: progress,
			Total:    100,
			Message:  fmt.Sprintf("Processing... %d/100", progress),
		}, 0); err != nil {
			return err
		}
	}

	// 5: closing log notifications.
	logs := []types.LogParams{
		{Level: "info", Message: "Processing completed"},
		{Level: "debug", Message: "All tools executed successfully"},
		{Level: "warning", Message: "Ready for new requests"},
	}
	for _, entry := range logs {
		entry.Timestamp = time.Now().UnixMilli()
		if err := sendNotification("notifications/log", entry, s.cfg.Delay/2); err != nil {
			return err
		}
	}

	return nil
}

func (s *sseServer) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newSeededPicker(seed int64) *catalog.Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return catalog.NewPicker(seed)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func normalizeAddr(addr string) string {
	if addr == "" {
		return "127.0.0.1:0"
	}
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		return "127.0.0.1:" + port
	}
	return addr
}
