package types

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshalStringOrNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ID
	}{
		{name: "string id", input: `"agent-7"`, expected: "agent-7"},
		{name: "integer id", input: `42`, expected: "42"},
		{name: "zero id", input: `0`, expected: "0"},
		{name: "negative id", input: `-3`, expected: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if id != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, id)
			}
		})
	}
}

func TestIDUnmarshalRejectsStructured(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`{"nested":true}`), &id); err == nil {
		t.Error("Expected error for structured id")
	}
}

func TestIDFromInt(t *testing.T) {
	if IDFromInt(7) != "7" {
		t.Errorf("Expected \"7\", got %q", IDFromInt(7))
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		JSONRPC: Version,
		ID:      "a-1",
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"read_file"}`),
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Request
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ID != req.ID || back.Method != req.Method {
		t.Errorf("Round trip changed request: %+v", back)
	}
}

func TestErrorResponseOmitsEmptyData(t *testing.T) {
	resp := ErrorResponse{
		JSONRPC: Version,
		ID:      "a-2",
		Error:   RPCError{Code: CodeMethodNotFound, Message: "Method not found"},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) == "" || string(data) != `{"jsonrpc":"2.0","id":"a-2","error":{"code":-32601,"message":"Method not found"}}` {
		t.Errorf("Unexpected serialization: %s", data)
	}
}
