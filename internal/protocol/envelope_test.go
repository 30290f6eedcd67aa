package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/azerzeki/mcp-reticle/internal/types"
)

func TestDecodeClassification(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   Kind
		method string
		id     types.ID
	}{
		{
			name:   "request",
			input:  `{"jsonrpc":"2.0","id":"agent-1","method":"tools/list"}`,
			kind:   KindRequest,
			method: "tools/list",
			id:     "agent-1",
		},
		{
			name:   "request with numeric id",
			input:  `{"jsonrpc":"2.0","id":42,"method":"initialize","params":{}}`,
			kind:   KindRequest,
			method: "initialize",
			id:     "42",
		},
		{
			name:   "notification",
			input:  `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			kind:   KindNotification,
			method: "notifications/initialized",
		},
		{
			name:  "response",
			input: `{"jsonrpc":"2.0","id":"agent-2","result":{"tools":[]}}`,
			kind:  KindResponse,
			id:    "agent-2",
		},
		{
			name:  "error response",
			input: `{"jsonrpc":"2.0","id":"agent-3","error":{"code":-32601,"message":"Method not found"}}`,
			kind:  KindError,
			id:    "agent-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if env.Kind() != tt.kind {
				t.Errorf("Expected kind %v, got %v", tt.kind, env.Kind())
			}
			if env.Method() != tt.method {
				t.Errorf("Expected method %q, got %q", tt.method, env.Method())
			}
			if env.CorrelationID() != tt.id {
				t.Errorf("Expected id %q, got %q", tt.id, env.CorrelationID())
			}
		})
	}
}

func TestDecodeParseError(t *testing.T) {
	_, err := Decode([]byte("This is raw stdout output, not a protocol message!"))
	if err == nil {
		t.Fatal("Expected error for non-JSON input")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got %T", err)
	}
}

func TestDecodeViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty object", input: `{}`},
		{name: "jsonrpc only", input: `{"jsonrpc":"2.0"}`},
		{name: "result without id", input: `{"jsonrpc":"2.0","result":{}}`},
		{name: "error without id", input: `{"jsonrpc":"2.0","error":{"code":-32603,"message":"boom"}}`},
		{name: "method and result", input: `{"jsonrpc":"2.0","id":"x-1","method":"tools/list","result":{}}`},
		{name: "result and error", input: `{"jsonrpc":"2.0","id":"x-1","result":{},"error":{"code":1,"message":"m"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatal("Expected violation error")
			}
			var violation *ViolationError
			if !errors.As(err, &violation) {
				t.Errorf("Expected *ViolationError, got %T (%v)", err, err)
			}
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"name": "read_file"})
	envs := []*Envelope{
		NewRequest("agent-7", "tools/call", params),
		NewNotification("notifications/initialized", nil),
		NewResponse("agent-7", json.RawMessage(`{"ok":true}`)),
		NewErrorResponse("agent-8", types.CodeMethodNotFound, "Method not found", nil),
	}

	for _, env := range envs {
		data, err := env.Marshal()
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode failed for %s: %v", env.Kind(), err)
		}
		if decoded.Kind() != env.Kind() {
			t.Errorf("Expected kind %v after round trip, got %v", env.Kind(), decoded.Kind())
		}
		if decoded.CorrelationID() != env.CorrelationID() {
			t.Errorf("Expected id %q after round trip, got %q", env.CorrelationID(), decoded.CorrelationID())
		}
	}
}

func TestErrorResponseCarriesData(t *testing.T) {
	data := json.RawMessage(`{"details":"Connection timeout"}`)
	env := NewErrorResponse(types.IDFromInt(2), types.CodeInternalError, "Internal error", data)

	line, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	decoded, err := Decode(line)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Kind() != KindError {
		t.Fatalf("Expected error envelope, got %v", decoded.Kind())
	}
	if decoded.Error.Error.Code != types.CodeInternalError {
		t.Errorf("Expected code %d, got %d", types.CodeInternalError, decoded.Error.Error.Code)
	}
	var details map[string]string
	if err := json.Unmarshal(decoded.Error.Error.Data, &details); err != nil {
		t.Fatalf("Unmarshal data failed: %v", err)
	}
	if details["details"] != "Connection timeout" {
		t.Errorf("Expected data details to survive round trip, got %v", details)
	}
}

func TestKindString(t *testing.T) {
	if KindRequest.String() != "request" || KindInvalid.String() != "invalid" {
		t.Error("Kind.String returned unexpected labels")
	}
}
