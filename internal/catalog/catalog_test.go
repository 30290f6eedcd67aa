package catalog

import (
	"encoding/json"
	"testing"
)

func TestToolCatalog(t *testing.T) {
	tools := Tools()
	if len(tools) != 5 {
		t.Fatalf("Expected 5 tools, got %d", len(tools))
	}

	expected := map[string]bool{
		"read_file":       false,
		"write_file":      false,
		"list_directory":  false,
		"execute_command": false,
		"search_code":     false,
	}
	for _, tool := range tools {
		if _, ok := expected[tool.Name]; !ok {
			t.Errorf("Unexpected tool %q", tool.Name)
			continue
		}
		expected[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("Tool %q has no description", tool.Name)
		}

		var schema map[string]interface{}
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			t.Fatalf("Tool %q schema is not valid JSON: %v", tool.Name, err)
		}
		if schema["type"] != "object" {
			t.Errorf("Tool %q schema type is %v, want object", tool.Name, schema["type"])
		}
	}
	for name, seen := range expected {
		if !seen {
			t.Errorf("Missing tool %q", name)
		}
	}
}

func TestResourceURIsSupersetOfCatalog(t *testing.T) {
	uris := make(map[string]bool)
	for _, uri := range ResourceURIs() {
		uris[uri] = true
	}
	for _, res := range Resources() {
		if !uris[res.URI] {
			t.Errorf("Catalog resource %q missing from pickable URIs", res.URI)
		}
	}
	// Non-file schemes are deliberately included.
	if !uris["git://repo/commit/abc123"] || !uris["https://api.example.com/data"] {
		t.Error("Expected non-file URI schemes in the pickable set")
	}
}

func TestPromptCatalog(t *testing.T) {
	prompts := Prompts()
	if len(prompts) != 2 {
		t.Fatalf("Expected 2 prompts, got %d", len(prompts))
	}
	if prompts[0].Name != "code_review" || prompts[1].Name != "debug_error" {
		t.Errorf("Unexpected prompt names: %q, %q", prompts[0].Name, prompts[1].Name)
	}
	for _, p := range prompts {
		if len(p.Arguments) == 0 {
			t.Errorf("Prompt %q has no arguments", p.Name)
		}
	}
}

func TestPickerDeterministicWithSeed(t *testing.T) {
	a := NewPicker(42)
	b := NewPicker(42)

	for i := 0; i < 20; i++ {
		if ta, tb := a.ToolName(), b.ToolName(); ta != tb {
			t.Fatalf("Pickers with same seed diverged at draw %d: %q vs %q", i, ta, tb)
		}
	}
}

func TestPickerSelectsFromCatalog(t *testing.T) {
	names := make(map[string]bool)
	for _, n := range ToolNames() {
		names[n] = true
	}
	uris := make(map[string]bool)
	for _, u := range ResourceURIs() {
		uris[u] = true
	}

	p := NewPicker(7)
	for i := 0; i < 50; i++ {
		if n := p.ToolName(); !names[n] {
			t.Fatalf("Picker returned unknown tool %q", n)
		}
		if u := p.ResourceURI(); !uris[u] {
			t.Fatalf("Picker returned unknown URI %q", u)
		}
	}
}

func TestDurationJitterBounds(t *testing.T) {
	p := NewPicker(1)
	for i := 0; i < 100; i++ {
		ms := p.DurationJitterMs(10, 50)
		if ms < 10 || ms > 50 {
			t.Fatalf("Jitter %d out of [10,50]", ms)
		}
	}
	if p.DurationJitterMs(30, 30) != 30 {
		t.Error("Expected degenerate range to return min")
	}
}
