package sseserver

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/transport"
)

// readEvents consumes up to max events from an open SSE response body.
func readEvents(t *testing.T, body io.Reader, max int) []*transport.StreamEvent {
	t.Helper()

	reader := transport.NewStreamReader(body)
	var events []*transport.StreamEvent
	for len(events) < max {
		ev, err := reader.Next()
		if err != nil {
			break
		}
		events = append(events, ev)
	}
	return events
}

func startServer(t *testing.T, iterations int) (Server, func()) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Iterations = iterations
	cfg.Delay = 0
	cfg.HeartbeatEvery = 20 * time.Millisecond
	cfg.Seed = 1

	srv := New(cfg, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}
	return srv, cleanup
}

func TestEventStreamHeaders(t *testing.T) {
	srv, cleanup := startServer(t, 1)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.EventsURL(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events failed: %v", err)
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Errorf("Expected text/event-stream, got %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Errorf("Expected Cache-Control no-cache, got %q", resp.Header.Get("Cache-Control"))
	}
	if resp.Header.Get("X-Accel-Buffering") != "no" {
		t.Errorf("Expected X-Accel-Buffering no, got %q", resp.Header.Get("X-Accel-Buffering"))
	}
}

func TestRehearsedSequence(t *testing.T) {
	const iterations = 3
	srv, cleanup := startServer(t, iterations)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.EventsURL(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events failed: %v", err)
	}
	defer resp.Body.Close()

	// 3 responses, iterations response/progress pairs, 3 log notifications.
	want := 3 + iterations*2 + 3
	events := readEvents(t, resp.Body, want)
	if len(events) != want {
		t.Fatalf("Expected %d events, got %d", want, len(events))
	}

	for i, ev := range events {
		if ev.ID != int64(i+1) {
			t.Errorf("Event %d has id %d, want %d", i, ev.ID, i+1)
		}
	}

	for i := 0; i < 3; i++ {
		if events[i].Type != transport.EventTypeResponse {
			t.Errorf("Event %d type %q, want %q", i, events[i].Type, transport.EventTypeResponse)
		}
	}

	for i := 0; i < iterations; i++ {
		pair := events[3+i*2 : 3+i*2+2]
		if pair[0].Type != transport.EventTypeResponse || pair[1].Type != transport.EventTypeNotification {
			t.Errorf("Iteration %d expected response/notification pair, got %q/%q", i, pair[0].Type, pair[1].Type)
		}
	}

	for _, ev := range events[len(events)-3:] {
		if ev.Type != transport.EventTypeNotification {
			t.Errorf("Expected closing log notifications, got %q", ev.Type)
		}
	}

	// Every protocol event decodes as a valid envelope.
	for _, ev := range events {
		if ev.Type == transport.EventTypeHeartbeat {
			continue
		}
		if _, err := ev.Envelope(); err != nil {
			t.Errorf("Event data does not decode: %v (%q)", err, ev.Data)
		}
	}
}

func TestHeartbeatsAfterSequence(t *testing.T) {
	srv, cleanup := startServer(t, 1)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.EventsURL(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events failed: %v", err)
	}
	defer resp.Body.Close()

	// Sequence is 8 events; anything beyond is heartbeat.
	events := readEvents(t, resp.Body, 10)
	if len(events) < 10 {
		t.Fatalf("Expected heartbeats after the sequence, got %d events", len(events))
	}
	for _, ev := range events[8:] {
		if ev.Type != transport.EventTypeHeartbeat {
			t.Errorf("Expected heartbeat, got %q", ev.Type)
		}
		if !strings.Contains(string(ev.Data), `"type":"heartbeat"`) {
			t.Errorf("Unexpected heartbeat payload %q", ev.Data)
		}
	}
}

func TestConnectionsGetIndependentIDSequences(t *testing.T) {
	srv, cleanup := startServer(t, 1)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Two streams held open at once. Reading past the 8-event sequence into
	// the heartbeat window keeps both connections open concurrently. Each
	// must count from 1 on its own.
	const conns = 2
	const perConn = 10

	results := make(chan []*transport.StreamEvent, conns)
	errs := make(chan error, conns)
	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.EventsURL(), nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			results <- readEvents(t, resp.Body, perConn)
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("GET /events failed: %v", err)
	}
	got := 0
	for events := range results {
		got++
		if len(events) != perConn {
			t.Fatalf("Expected %d events per connection, got %d", perConn, len(events))
		}
		for i, ev := range events {
			if ev.ID != int64(i+1) {
				t.Errorf("Event %d has id %d, want %d", i, ev.ID, i+1)
			}
		}
	}
	if got != conns {
		t.Fatalf("Expected %d completed connections, got %d", conns, got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := startServer(t, 1)
	defer cleanup()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Read body failed: %v", err)
	}
	if !strings.Contains(string(body), `"status":"healthy"`) {
		t.Errorf("Unexpected health payload %q", body)
	}
}

func TestIndexDescribesEndpoints(t *testing.T) {
	srv, cleanup := startServer(t, 1)
	defer cleanup()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Read body failed: %v", err)
	}
	if !strings.Contains(string(body), "/events") {
		t.Errorf("Expected index to list the events endpoint, got %q", body)
	}
}
