// Package faultinject emits a scripted mix of valid protocol traffic and
// malformed output. It exists to exercise a consumer's tolerance for the
// noise a real server process produces: side-channel warnings, raw
// non-protocol lines on the primary channel, and crash traces.
package faultinject

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/logging"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/transport"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// Config configures the fault injector.
type Config struct {
	// Pace is the delay between script steps.
	Pace time.Duration
	// FinalHold keeps the process alive after the last message so a
	// consumer reading concurrently can drain everything.
	FinalHold time.Duration
}

// DefaultConfig returns the default injector configuration.
func DefaultConfig() *Config {
	return &Config{
		Pace:      500 * time.Millisecond,
		FinalHold: time.Second,
	}
}

// Injector writes the fault script to a primary protocol channel and a
// side channel for diagnostics.
type Injector struct {
	cfg     *Config
	primary *transport.LineWriter
	side    io.Writer
	log     *logging.RoleLogger
}

// New creates an injector writing protocol traffic to primary and
// diagnostic noise to side.
func New(cfg *Config, primary io.Writer, side io.Writer, log *logging.RoleLogger) *Injector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logging.NoopLogger()
	}
	return &Injector{
		cfg:     cfg,
		primary: transport.NewLineWriter(primary),
		side:    side,
		log:     log,
	}
}

// Run plays the script once. The primary channel carries an interleaving
// of valid envelopes and raw non-protocol lines; the side channel carries
// warnings, a fake crash trace, and error banners.
func (inj *Injector) Run(ctx context.Context) error {
	inj.sideLine("Warning: simulated startup warning from mock server")
	inj.sideLine("DEBUG: server starting up...")

	if err := inj.primary.Write(protocol.NewNotification("notifications/initialized", nil)); err != nil {
		return err
	}
	if err := inj.pause(ctx); err != nil {
		return err
	}

	if err := inj.primary.WriteRaw([]byte("This is raw stdout output, not a protocol message!")); err != nil {
		return err
	}
	if err := inj.primary.WriteRaw([]byte("Another raw line with some debug info")); err != nil {
		return err
	}
	if err := inj.pause(ctx); err != nil {
		return err
	}

	inj.sideLine(fakeTrace)
	if err := inj.pause(ctx); err != nil {
		return err
	}

	result, err := json.Marshal(types.ToolsListResult{
		Tools: []types.Tool{
			{Name: "test_tool", Description: "A test tool"},
		},
	})
	if err != nil {
		return err
	}
	if err := inj.primary.Write(protocol.NewResponse(types.IDFromInt(1), result)); err != nil {
		return err
	}
	if err := inj.pause(ctx); err != nil {
		return err
	}

	inj.sideLine("ERROR: Something went wrong!")
	inj.sideLine("CRITICAL: Database connection failed")

	details, err := json.Marshal(map[string]string{"details": "Connection timeout"})
	if err != nil {
		return err
	}
	env := protocol.NewErrorResponse(types.IDFromInt(2), types.CodeInternalError, "Internal error", details)
	if err := inj.primary.Write(env); err != nil {
		return err
	}

	inj.log.Debug("fault script complete")
	return sleepWithContext(ctx, inj.cfg.FinalHold)
}

func (inj *Injector) sideLine(msg string) {
	fmt.Fprintln(inj.side, msg)
}

func (inj *Injector) pause(ctx context.Context) error {
	return sleepWithContext(ctx, inj.cfg.Pace)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
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

const fakeTrace = `panic: invalid tool arguments

goroutine 1 [running]:
main.processToolCall(...)
	/path/to/mcp_server/main.go:78
main.handleRequest(...)
	/path/to/mcp_server/main.go:42`
