// Package catalog provides the static tool, resource, and prompt descriptors
// advertised by the simulated server role. Entries are synthetic but shaped
// like real MCP catalogs; they are built once and shared read-only.
package catalog

import (
	"encoding/json"

	"github.com/azerzeki/mcp-reticle/internal/types"
)

var objectSchema = func(props map[string]string, required []string) json.RawMessage {
	properties := make(map[string]interface{}, len(props))
	for name, typ := range props {
		properties[name] = map[string]string{"type": typ}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
	data, _ := json.Marshal(schema)
	return data
}

// Tools returns the fixed tool catalog.
func Tools() []types.Tool {
	return []types.Tool{
		{
			Name:        "read_file",
			Description: "Read contents of a file",
			InputSchema: objectSchema(map[string]string{"path": "string"}, []string{"path"}),
		},
		{
			Name:        "write_file",
			Description: "Write content to a file",
			InputSchema: objectSchema(map[string]string{"path": "string", "content": "string"}, []string{"path", "content"}),
		},
		{
			Name:        "list_directory",
			Description: "List files in a directory",
			InputSchema: objectSchema(map[string]string{"path": "string"}, []string{"path"}),
		},
		{
			Name:        "execute_command",
			Description: "Execute a shell command",
			InputSchema: objectSchema(map[string]string{"command": "string"}, []string{"command"}),
		},
		{
			Name:        "search_code",
			Description: "Search for code patterns",
			InputSchema: objectSchema(map[string]string{"pattern": "string", "file_type": "string"}, []string{"pattern"}),
		},
	}
}

// Resources returns the fixed resource catalog.
func Resources() []types.Resource {
	return []types.Resource{
		{URI: "file:///workspace/src/main.go", Name: "main.go", MimeType: "text/x-go"},
		{URI: "file:///workspace/src/lib.go", Name: "lib.go", MimeType: "text/x-go"},
		{URI: "file:///workspace/go.mod", Name: "go.mod", MimeType: "text/plain"},
		{URI: "file:///workspace/README.md", Name: "README.md", MimeType: "text/markdown"},
	}
}

// ResourceURIs returns the resource URIs the agent role picks from. It is a
// superset of the server catalog: non-file schemes exercise the proxy under
// test with URI shapes it may not expect.
func ResourceURIs() []string {
	return []string{
		"file:///workspace/src/main.go",
		"file:///workspace/src/lib.go",
		"file:///workspace/go.mod",
		"file:///workspace/README.md",
		"git://repo/commit/abc123",
		"https://api.example.com/data",
	}
}

// Prompts returns the fixed prompt catalog.
func Prompts() []types.Prompt {
	return []types.Prompt{
		{
			Name:        "code_review",
			Description: "Review code for best practices",
			Arguments: []types.PromptArgument{
				{Name: "code", Description: "Code to review", Required: true},
			},
		},
		{
			Name:        "debug_error",
			Description: "Help debug an error message",
			Arguments: []types.PromptArgument{
				{Name: "error", Description: "Error message", Required: true},
			},
		},
	}
}

// ToolNames returns the names of all catalog tools.
func ToolNames() []string {
	tools := Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}
