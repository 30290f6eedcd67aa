package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/azerzeki/mcp-reticle/internal/protocol"
)

// Reserved SSE event type names.
const (
	EventTypeResponse     = "mcp-response"
	EventTypeNotification = "mcp-notification"
	EventTypeHeartbeat    = "heartbeat"
)

// StreamSession frames outbound messages as SSE events over one long-lived
// connection. Event ids increase strictly from 1 and are scoped to the
// session; a new connection starts a fresh sequence.
type StreamSession struct {
	w       io.Writer
	flusher http.Flusher
	nextID  int64
	mu      sync.Mutex
}

// NewStreamSession creates a session writing to w. flusher may be nil when
// the writer does not buffer (tests).
func NewStreamSession(w io.Writer, flusher http.Flusher) *StreamSession {
	return &StreamSession{w: w, flusher: flusher, nextID: 1}
}

// SendEnvelope frames an envelope as an SSE event of the given type.
func (s *StreamSession) SendEnvelope(eventType string, env *protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return s.send(eventType, data)
}

// SendJSON frames an arbitrary JSON-marshalable payload. Heartbeats use this.
func (s *StreamSession) SendJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.send(eventType, data)
}

func (s *StreamSession) send(eventType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	if _, err := fmt.Fprintf(s.w, "event: %s\nid: %d\ndata: %s\n\n", eventType, id, data); err != nil {
		return err
	}
	s.nextID++
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// EventsSent reports how many events have been written on this session.
func (s *StreamSession) EventsSent() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID - 1
}
