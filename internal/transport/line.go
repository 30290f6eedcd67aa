// Package transport binds protocol envelopes to concrete carriers: a
// line-oriented byte stream (one JSON document per line) and Server-Sent
// Events over a long-lived HTTP response.
package transport

import (
	"bufio"
	"errors"
	"io"
	"sync"

	"github.com/azerzeki/mcp-reticle/internal/config"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
)

// ErrStreamClosed reports that the peer closed the transport. Both role
// engines treat it as a clean shutdown signal, not a failure.
var ErrStreamClosed = errors.New("stream closed")

// ErrLineTooLong reports a line longer than config.MaxLineBytes. The reader
// discards the rest of the line and stays usable.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// LineWriter writes one JSON document per line, flushing after every write.
type LineWriter struct {
	w  *bufio.Writer
	mu sync.Mutex
}

// NewLineWriter wraps w in line-oriented JSON framing.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Write serializes the envelope, appends a newline, and flushes.
func (lw *LineWriter) Write(env *protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return lw.WriteRaw(data)
}

// WriteRaw writes a pre-serialized line. The fault injector uses this to
// place raw non-JSON bytes on the primary channel.
func (lw *LineWriter) WriteRaw(line []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := lw.w.Write(line); err != nil {
		return err
	}
	if err := lw.w.WriteByte('\n'); err != nil {
		return err
	}
	return lw.w.Flush()
}

// LineReader reads newline-delimited JSON documents, skipping blank lines.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r in line-oriented reading. Lines longer than
// config.MaxLineBytes are discarded and reported as a parse failure; the
// stream keeps going.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine blocks until the next non-blank line is available. End of stream
// returns ErrStreamClosed. An oversized line returns *protocol.ParseError
// wrapping ErrLineTooLong after the remainder of the line is consumed.
func (lr *LineReader) ReadLine() ([]byte, error) {
	for {
		line, err := lr.nextLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// nextLine accumulates one full line, without the trailing newline. A
// carriage return before the newline is stripped.
func (lr *LineReader) nextLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := lr.r.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil || errors.Is(err, bufio.ErrBufferFull) {
			if len(line) > config.MaxLineBytes {
				if discardErr := lr.discardLine(err == nil); discardErr != nil {
					return nil, discardErr
				}
				return nil, &protocol.ParseError{Err: ErrLineTooLong}
			}
			if err == nil {
				return trimLineEnding(line), nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, ErrStreamClosed
			}
			// Final line without a newline.
			return trimLineEnding(line), nil
		}
		return nil, err
	}
}

// discardLine consumes the rest of the current oversized line so the next
// read starts on a fresh one. done means the newline was already seen.
func (lr *LineReader) discardLine(done bool) error {
	for !done {
		_, err := lr.r.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func trimLineEnding(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}

// ReadEnvelope reads the next line and decodes it. Decode failures are
// returned alongside the raw line so the caller can log and skip.
func (lr *LineReader) ReadEnvelope() (*protocol.Envelope, []byte, error) {
	line, err := lr.ReadLine()
	if err != nil {
		return nil, nil, err
	}
	env, err := protocol.Decode(line)
	if err != nil {
		return nil, line, err
	}
	return env, line, nil
}
