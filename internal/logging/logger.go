// Package logging provides structured side-channel logging for the harness
// roles. Diagnostics always go to stderr (or a caller-supplied writer) so that
// stdout stays reserved for protocol traffic.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// RoleLogger wraps slog with the role identity attached to every record.
type RoleLogger struct {
	logger  *slog.Logger
	role    string
	verbose bool
}

// NewRoleLogger creates a logger tagged with the given role identity writing
// JSON records to stderr. When verbose is false only warnings and errors are
// emitted.
func NewRoleLogger(role string, verbose bool) *RoleLogger {
	return NewRoleLoggerWithWriter(role, verbose, os.Stderr)
}

// NewRoleLoggerWithWriter creates a logger writing to a custom writer.
// Useful for testing or redirecting output.
func NewRoleLoggerWithWriter(role string, verbose bool, w io.Writer) *RoleLogger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("role", role)
	return &RoleLogger{
		logger:  logger,
		role:    role,
		verbose: verbose,
	}
}

// NoopLogger returns a logger that discards all records.
func NoopLogger() *RoleLogger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return &RoleLogger{logger: slog.New(handler)}
}

// Verbose reports whether debug-level records are emitted.
func (l *RoleLogger) Verbose() bool { return l.verbose }

// Sent logs an outbound envelope.
func (l *RoleLogger) Sent(kind, method string, id string) {
	l.logger.Debug("sent", "kind", kind, "method", method, "id", id)
}

// Received logs an inbound envelope.
func (l *RoleLogger) Received(kind string, id string) {
	l.logger.Debug("received", "kind", kind, "id", id)
}

// SkippedLine logs an inbound line that could not be parsed as protocol traffic.
func (l *RoleLogger) SkippedLine(reason string) {
	l.logger.Warn("skipped_line", "reason", reason)
}

// Info logs an informational message with attributes.
func (l *RoleLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Debug logs a debug message with attributes.
func (l *RoleLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Warn logs a warning with attributes.
func (l *RoleLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error with attributes.
func (l *RoleLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}
