// Package types defines the JSON-RPC envelope and MCP payload types used by
// the reticle traffic harness.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version carried by every envelope.
const Version = "2.0"

// ID is a correlation id linking a request to its response. Ids are opaque
// strings; peers that send numeric ids are normalized to their decimal string
// form on decode. The zero value means "no id present".
type ID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	return fmt.Errorf("id must be a string or number, got %s", data)
}

func (id ID) String() string { return string(id) }

// IDFromInt formats an integer correlation id.
func IDFromInt(n int64) ID { return ID(strconv.FormatInt(n, 10)) }

// Request represents a JSON-RPC 2.0 request. A request always carries an id
// and expects exactly one response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification represents a JSON-RPC 2.0 notification. It carries no id and
// never receives a reply.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a successful JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result"`
}

// ErrorResponse represents a JSON-RPC 2.0 error response.
type ErrorResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      ID       `json:"id"`
	Error   RPCError `json:"error"`
}

// RPCError is the error object inside an ErrorResponse.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC error codes used by the harness.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)
