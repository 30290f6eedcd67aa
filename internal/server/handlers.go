package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/azerzeki/mcp-reticle/internal/catalog"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// handlerFunc produces either a result value (marshaled into the response) or
// an RPC error to send back.
type handlerFunc func(ctx context.Context, req *types.Request) (interface{}, *types.RPCError)

func (e *Engine) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		"initialize":     e.handleInitialize,
		"tools/list":     e.handleToolsList,
		"tools/call":     e.handleToolsCall,
		"resources/list": e.handleResourcesList,
		"resources/read": e.handleResourcesRead,
		"prompts/list":   e.handlePromptsList,
		"prompts/get":    e.handlePromptsGet,
	}
}

func (e *Engine) handleInitialize(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	e.log.Debug("initializing")

	var params types.InitializeParams
	if req.Params != nil {
		_ = json.Unmarshal(req.Params, &params)
	}
	version := params.ProtocolVersion
	if version == "" || !protocol.IsSupported(version) {
		version = protocol.DefaultProtocolVersion
	}

	e.initialized = true
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)

	return types.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    protocol.DefaultCapabilities(),
		ServerInfo:      types.ServerInfo{Name: e.cfg.Name, Version: "1.0.0"},
	}, nil
}

func (e *Engine) handleToolsList(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)
	return types.ToolsListResult{Tools: catalog.Tools()}, nil
}

func (e *Engine) handleToolsCall(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	var params types.ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &types.RPCError{Code: types.CodeInternalError, Message: "Internal error"}
	}

	e.log.Debug("calling tool", "tool", params.Name)

	text, ok := e.executeTool(params.Name, params.Arguments)
	if !ok {
		return nil, &types.RPCError{
			Code:    types.CodeMethodNotFound,
			Message: "Tool not found: " + params.Name,
		}
	}

	e.simulateLatency(ctx, e.cfg.ToolCallMinLatencyMs, e.cfg.ToolCallMaxLatencyMs)

	return types.ToolsCallResult{
		Content: []types.ToolContent{{Type: "text", Text: text}},
	}, nil
}

// executeTool synthesizes a plausible result for each catalog tool. Payloads
// are shaped for realism, not correctness: no file or command is touched.
func (e *Engine) executeTool(name string, args map[string]interface{}) (string, bool) {
	switch name {
	case "read_file":
		var b strings.Builder
		fmt.Fprintf(&b, "// Mock file content for %s\n", stringArg(args, "path"))
		b.WriteString("package main\n\nfunc main() {\n\tprintln(\"Hello, world!\")\n}\n")
		return b.String(), true
	case "write_file":
		return fmt.Sprintf("Successfully wrote to %s", stringArg(args, "path")), true
	case "list_directory":
		return strings.Join([]string{"main.go", "lib.go", "util.go", "go.mod"}, "\n"), true
	case "execute_command":
		return fmt.Sprintf("Executed: %s\nOutput: Success", stringArg(args, "command")), true
	case "search_code":
		matches := []string{
			"src/main.go:12: func process(ctx context.Context) {",
			"src/lib.go:45: func handleRequest(ctx context.Context) {",
		}
		return strings.Join(matches, "\n"), true
	default:
		return "", false
	}
}

func (e *Engine) handleResourcesList(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)
	return types.ResourcesListResult{Resources: catalog.Resources()}, nil
}

func (e *Engine) handleResourcesRead(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	var params types.ResourcesReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &types.RPCError{Code: types.CodeInternalError, Message: "Internal error"}
	}

	e.log.Debug("reading resource", "uri", params.URI)
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)

	content := fmt.Sprintf("# Content of %s\n\nThis is mock content for testing.", params.URI)
	return types.ResourcesReadResult{
		Contents: []types.ResourceContent{
			{URI: params.URI, MimeType: "text/plain", Text: content},
		},
	}, nil
}

func (e *Engine) handlePromptsList(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)
	return types.PromptsListResult{Prompts: catalog.Prompts()}, nil
}

func (e *Engine) handlePromptsGet(ctx context.Context, req *types.Request) (interface{}, *types.RPCError) {
	var params types.PromptsGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &types.RPCError{Code: types.CodeInternalError, Message: "Internal error"}
	}

	e.log.Debug("getting prompt", "prompt", params.Name)
	e.simulateLatency(ctx, e.cfg.ReadMinLatencyMs, e.cfg.ReadMaxLatencyMs)

	argsJSON, _ := json.MarshalIndent(params.Arguments, "", "  ")
	text := fmt.Sprintf("Please %s the following:\n%s",
		strings.ReplaceAll(params.Name, "_", " "), argsJSON)

	return types.PromptsGetResult{
		Description: fmt.Sprintf("Generated prompt for %s", params.Name),
		Messages: []types.PromptMessage{
			{
				Role:    "user",
				Content: types.PromptContent{Type: "text", Text: text},
			},
		},
	}, nil
}

func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

// resultEnvelope marshals a handler result into a response envelope.
func resultEnvelope(id types.ID, result interface{}) (*protocol.Envelope, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(id, payload), nil
}

// extractID pulls a best-effort correlation id out of a line that failed
// shape validation, so the fault can still be reported to the peer.
func extractID(line []byte) types.ID {
	var partial struct {
		ID *types.ID `json:"id"`
	}
	if err := json.Unmarshal(line, &partial); err != nil || partial.ID == nil {
		return ""
	}
	return *partial.ID
}
