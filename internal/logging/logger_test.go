package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestVerboseGate(t *testing.T) {
	var buf bytes.Buffer
	quiet := NewRoleLoggerWithWriter("agent", false, &buf)
	quiet.Debug("should not appear")
	quiet.Info("also filtered at default level")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn when not verbose, got %q", buf.String())
	}

	quiet.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Expected warn to pass the gate")
	}
}

func TestVerboseEmitsDebugJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewRoleLoggerWithWriter("server", true, &buf)
	log.Sent("response", "", "a-1")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("Expected a log record in verbose mode")
	}

	var record map[string]interface{}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("Log record is not JSON: %v (%q)", err, line)
	}
	if record["role"] != "server" {
		t.Errorf("Expected role attribute, got %v", record["role"])
	}
	if record["id"] != "a-1" {
		t.Errorf("Expected id attribute, got %v", record["id"])
	}
}

func TestSkippedLineRecordsReason(t *testing.T) {
	var buf bytes.Buffer
	log := NewRoleLoggerWithWriter("server", true, &buf)
	log.SkippedLine("parse error: invalid character")

	if !strings.Contains(buf.String(), "parse error") {
		t.Errorf("Expected skip reason in output, got %q", buf.String())
	}
}

func TestNoopLoggerDiscards(t *testing.T) {
	log := NoopLogger()
	// Must not panic.
	log.Error("dropped")
	log.Sent("request", "tools/list", "x-1")
}
