package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/azerzeki/mcp-reticle/internal/protocol"
)

// StreamEvent is one decoded SSE frame.
type StreamEvent struct {
	Type string
	ID   int64
	Data []byte
}

// Envelope decodes the event payload as a protocol envelope. Heartbeat
// frames carry a plain JSON object, not an envelope; callers check Type
// before decoding.
func (e *StreamEvent) Envelope() (*protocol.Envelope, error) {
	return protocol.Decode(e.Data)
}

// StreamReader decodes SSE frames from a byte stream. It is the consuming
// counterpart of StreamSession: comment lines are skipped and multi-line
// data fields are joined with newlines per the SSE framing rules.
type StreamReader struct {
	scanner *bufio.Scanner
}

// NewStreamReader wraps r in SSE frame decoding.
func NewStreamReader(r io.Reader) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StreamReader{scanner: scanner}
}

// Next blocks until a complete frame is available. End of stream returns
// ErrStreamClosed.
func (r *StreamReader) Next() (*StreamEvent, error) {
	ev := &StreamEvent{}
	seen := false

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		switch {
		case line == "":
			if seen {
				return ev, nil
			}
		case strings.HasPrefix(line, ":"):
			// comment, keep-alive padding
		case strings.HasPrefix(line, "event:"):
			ev.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			seen = true
		case strings.HasPrefix(line, "id:"):
			ev.ID, _ = strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "id:")), 10, 64)
			seen = true
		case strings.HasPrefix(line, "data:"):
			chunk := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if len(ev.Data) > 0 {
				ev.Data = append(ev.Data, '\n')
			}
			ev.Data = append(ev.Data, chunk...)
			seen = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if seen {
		return ev, nil
	}
	return nil, ErrStreamClosed
}
