package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/azerzeki/mcp-reticle/internal/protocol"
)

func TestStreamSessionFraming(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSession(&buf, nil)

	env := protocol.NewResponse("1", json.RawMessage(`{"ok":true}`))
	if err := s.SendEnvelope(EventTypeResponse, env); err != nil {
		t.Fatalf("SendEnvelope failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: mcp-response\nid: 1\ndata: ") {
		t.Errorf("Unexpected frame prefix: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Expected frame to end with blank line, got %q", out)
	}

	dataLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
		}
	}
	if _, err := protocol.Decode([]byte(dataLine)); err != nil {
		t.Errorf("Frame data does not decode: %v", err)
	}
}

func TestStreamSessionIDsMonotonicFromOne(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSession(&buf, nil)

	for i := 0; i < 3; i++ {
		if err := s.SendJSON(EventTypeHeartbeat, map[string]string{"type": "heartbeat"}); err != nil {
			t.Fatalf("SendJSON failed: %v", err)
		}
	}

	for i := 1; i <= 3; i++ {
		marker := fmt.Sprintf("id: %d\n", i)
		if !strings.Contains(buf.String(), marker) {
			t.Errorf("Missing event id %d in output", i)
		}
	}
	if s.EventsSent() != 3 {
		t.Errorf("Expected 3 events sent, got %d", s.EventsSent())
	}
}

func TestStreamReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSession(&buf, nil)

	env := protocol.NewNotification("notifications/progress", json.RawMessage(`{"progress":50,"total":100}`))
	if err := s.SendEnvelope(EventTypeNotification, env); err != nil {
		t.Fatalf("SendEnvelope failed: %v", err)
	}
	if err := s.SendJSON(EventTypeHeartbeat, map[string]string{"type": "heartbeat"}); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	r := NewStreamReader(&buf)

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Type != EventTypeNotification || ev.ID != 1 {
		t.Errorf("Unexpected first event: %+v", ev)
	}
	decoded, err := ev.Envelope()
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}
	if decoded.Method() != "notifications/progress" {
		t.Errorf("Expected progress notification, got %q", decoded.Method())
	}

	ev, err = r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Type != EventTypeHeartbeat || ev.ID != 2 {
		t.Errorf("Unexpected second event: %+v", ev)
	}

	if _, err := r.Next(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed at end of stream, got %v", err)
	}
}

func TestStreamReaderSkipsComments(t *testing.T) {
	input := ": keep-alive\n\nevent: heartbeat\nid: 1\ndata: {}\n\n"
	r := NewStreamReader(strings.NewReader(input))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Type != EventTypeHeartbeat {
		t.Errorf("Expected heartbeat event, got %q", ev.Type)
	}
}

func TestStreamSessionsIndependent(t *testing.T) {
	var a, b bytes.Buffer
	sa := NewStreamSession(&a, nil)
	sb := NewStreamSession(&b, nil)

	for i := 0; i < 5; i++ {
		if err := sa.SendJSON(EventTypeHeartbeat, i); err != nil {
			t.Fatalf("SendJSON failed: %v", err)
		}
	}
	if err := sb.SendJSON(EventTypeHeartbeat, 0); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}

	if !strings.HasPrefix(b.String(), "event: heartbeat\nid: 1\n") {
		t.Errorf("Expected second session to start at id 1, got %q", b.String())
	}
}
