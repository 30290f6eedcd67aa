// Package protocol implements construction, validation, and classification of
// JSON-RPC envelopes for the reticle traffic harness.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/azerzeki/mcp-reticle/internal/types"
)

// Kind discriminates the four envelope shapes without re-parsing.
type Kind int

const (
	KindInvalid Kind = iota
	KindRequest
	KindNotification
	KindResponse
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Envelope is a decoded JSON-RPC message. Exactly one of Request,
// Notification, Response, or Error is non-nil, matching Kind().
type Envelope struct {
	kind         Kind
	Request      *types.Request
	Notification *types.Notification
	Response     *types.Response
	Error        *types.ErrorResponse
}

// Kind reports which envelope shape was decoded.
func (e *Envelope) Kind() Kind { return e.kind }

// Method returns the method for request and notification envelopes, "" otherwise.
func (e *Envelope) Method() string {
	switch e.kind {
	case KindRequest:
		return e.Request.Method
	case KindNotification:
		return e.Notification.Method
	default:
		return ""
	}
}

// CorrelationID returns the envelope's id, or "" for notifications.
func (e *Envelope) CorrelationID() types.ID {
	switch e.kind {
	case KindRequest:
		return e.Request.ID
	case KindResponse:
		return e.Response.ID
	case KindError:
		return e.Error.ID
	default:
		return ""
	}
}

// NewRequest constructs a request envelope. Construction never fails for
// well-formed inputs; params may be nil.
func NewRequest(id types.ID, method string, params json.RawMessage) *Envelope {
	return &Envelope{
		kind: KindRequest,
		Request: &types.Request{
			JSONRPC: types.Version,
			ID:      id,
			Method:  method,
			Params:  params,
		},
	}
}

// NewNotification constructs a notification envelope.
func NewNotification(method string, params json.RawMessage) *Envelope {
	return &Envelope{
		kind: KindNotification,
		Notification: &types.Notification{
			JSONRPC: types.Version,
			Method:  method,
			Params:  params,
		},
	}
}

// NewResponse constructs a success response envelope.
func NewResponse(id types.ID, result json.RawMessage) *Envelope {
	return &Envelope{
		kind: KindResponse,
		Response: &types.Response{
			JSONRPC: types.Version,
			ID:      id,
			Result:  result,
		},
	}
}

// NewErrorResponse constructs an error response envelope.
func NewErrorResponse(id types.ID, code int, message string, data json.RawMessage) *Envelope {
	return &Envelope{
		kind: KindError,
		Error: &types.ErrorResponse{
			JSONRPC: types.Version,
			ID:      id,
			Error: types.RPCError{
				Code:    code,
				Message: message,
				Data:    data,
			},
		},
	}
}

// Marshal serializes the envelope to a single-line JSON document.
func (e *Envelope) Marshal() ([]byte, error) {
	switch e.kind {
	case KindRequest:
		return json.Marshal(e.Request)
	case KindNotification:
		return json.Marshal(e.Notification)
	case KindResponse:
		return json.Marshal(e.Response)
	case KindError:
		return json.Marshal(e.Error)
	default:
		return nil, &ViolationError{Reason: "cannot marshal invalid envelope"}
	}
}

// rawEnvelope captures all possible fields of an inbound message so the shape
// can be classified by presence.
type rawEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *types.ID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *types.RPCError `json:"error"`
}

// Decode parses one JSON document into a typed envelope. It returns
// *ParseError for invalid JSON and *ViolationError for valid JSON whose
// fields do not match any of the four envelope shapes.
func Decode(data []byte) (*Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	hasID := raw.ID != nil && *raw.ID != ""
	hasMethod := raw.Method != ""
	hasResult := raw.Result != nil
	hasError := raw.Error != nil

	switch {
	case hasMethod && hasResult, hasMethod && hasError, hasResult && hasError:
		return nil, &ViolationError{Reason: "more than one of method, result, error present"}
	case hasMethod && hasID:
		return NewRequest(*raw.ID, raw.Method, raw.Params), nil
	case hasMethod:
		return NewNotification(raw.Method, raw.Params), nil
	case hasResult:
		if !hasID {
			return nil, &ViolationError{Reason: "response missing id"}
		}
		return NewResponse(*raw.ID, raw.Result), nil
	case hasError:
		if !hasID {
			return nil, &ViolationError{Reason: "error response missing id"}
		}
		env := NewErrorResponse(*raw.ID, raw.Error.Code, raw.Error.Message, raw.Error.Data)
		return env, nil
	default:
		return nil, &ViolationError{Reason: "message has none of method, result, error"}
	}
}

// ParseError reports inbound bytes that are not valid JSON. It is always
// recovered locally: the line or frame is skipped and logged.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ViolationError reports valid JSON that is missing required fields for its
// detected shape.
type ViolationError struct {
	Reason string
}

func (e *ViolationError) Error() string {
	return "protocol violation: " + e.Reason
}
