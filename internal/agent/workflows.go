package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/azerzeki/mcp-reticle/internal/config"
	otelx "github.com/azerzeki/mcp-reticle/internal/otel"
	"github.com/azerzeki/mcp-reticle/internal/protocol"
	"github.com/azerzeki/mcp-reticle/internal/types"
)

// Convenience operations mirroring the server's method surface.

func (e *Engine) ListTools(ctx context.Context) (*protocol.Envelope, error) {
	return e.Call(ctx, "tools/list", nil)
}

func (e *Engine) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.Envelope, error) {
	return e.Call(ctx, "tools/call", types.ToolsCallParams{Name: name, Arguments: args})
}

func (e *Engine) ListResources(ctx context.Context) (*protocol.Envelope, error) {
	return e.Call(ctx, "resources/list", nil)
}

func (e *Engine) ReadResource(ctx context.Context, uri string) (*protocol.Envelope, error) {
	return e.Call(ctx, "resources/read", types.ResourcesReadParams{URI: uri})
}

func (e *Engine) ListPrompts(ctx context.Context) (*protocol.Envelope, error) {
	return e.Call(ctx, "prompts/list", nil)
}

func (e *Engine) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*protocol.Envelope, error) {
	return e.Call(ctx, "prompts/get", types.PromptsGetParams{Name: name, Arguments: args})
}

// workflow is one named interaction pattern: a short deterministic sequence
// of calls with small inter-call pauses.
type workflow struct {
	name string
	run  func(ctx context.Context) error
}

func (e *Engine) workflows() []workflow {
	return []workflow{
		{"code_analysis", e.workflowCodeAnalysis},
		{"file_operations", e.workflowFileOperations},
		{"resource_access", e.workflowResourceAccess},
		{"prompt_interaction", e.workflowPromptInteraction},
		{"mixed_operations", e.workflowMixedOperations},
	}
}

// RunWorkflows executes the requested number of iterations, selecting a
// workflow uniformly at random each time and pausing between iterations.
func (e *Engine) RunWorkflows(ctx context.Context, iterations int, delay time.Duration) error {
	e.log.Debug("starting realistic workflow", "iterations", iterations)

	flows := e.workflows()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil
		}

		flow := flows[e.picker.Intn(len(flows))]
		e.log.Debug("iteration", "n", i+1, "of", iterations, "workflow", flow.name)

		wfCtx, span := otelx.GetGlobalTracer().StartWorkflowSpan(ctx, flow.name, i+1)
		err := flow.run(wfCtx)
		if err != nil {
			otelx.RecordError(span, err, "workflow")
		}
		span.End()
		if err != nil {
			return err
		}

		if !sleepWithContext(ctx, delay) {
			return nil
		}
	}
	return nil
}

func (e *Engine) workflowCodeAnalysis(ctx context.Context) error {
	if _, err := e.ListTools(ctx); err != nil {
		return err
	}
	e.pause(ctx)

	if _, err := e.CallTool(ctx, "search_code", map[string]interface{}{
		"pattern":   "func.*Context",
		"file_type": "go",
	}); err != nil {
		return err
	}
	e.pause(ctx)

	if _, err := e.CallTool(ctx, "read_file", map[string]interface{}{
		"path": "/workspace/src/main.go",
	}); err != nil {
		return err
	}
	e.pause(ctx)
	return nil
}

func (e *Engine) workflowFileOperations(ctx context.Context) error {
	if _, err := e.CallTool(ctx, "list_directory", map[string]interface{}{
		"path": "/workspace/src",
	}); err != nil {
		return err
	}
	e.pause(ctx)

	if _, err := e.CallTool(ctx, "read_file", map[string]interface{}{
		"path": "/workspace/go.mod",
	}); err != nil {
		return err
	}
	e.pause(ctx)

	if _, err := e.CallTool(ctx, "write_file", map[string]interface{}{
		"path":    "/tmp/test.txt",
		"content": fmt.Sprintf("Test at %s", time.Now().Format(time.RFC3339)),
	}); err != nil {
		return err
	}
	e.pause(ctx)
	return nil
}

func (e *Engine) workflowResourceAccess(ctx context.Context) error {
	if _, err := e.ListResources(ctx); err != nil {
		return err
	}
	e.pause(ctx)

	reads := 1 + e.picker.Intn(3)
	for i := 0; i < reads; i++ {
		if _, err := e.ReadResource(ctx, e.picker.ResourceURI()); err != nil {
			return err
		}
		e.pause(ctx)
	}
	return nil
}

func (e *Engine) workflowPromptInteraction(ctx context.Context) error {
	if _, err := e.ListPrompts(ctx); err != nil {
		return err
	}
	e.pause(ctx)

	if _, err := e.GetPrompt(ctx, "code_review", map[string]interface{}{
		"code": "func main() { println(\"Hello\") }",
	}); err != nil {
		return err
	}
	e.pause(ctx)
	return nil
}

func (e *Engine) workflowMixedOperations(ctx context.Context) error {
	ops := []func(context.Context) error{
		func(ctx context.Context) error { _, err := e.ListTools(ctx); return err },
		func(ctx context.Context) error { _, err := e.ListResources(ctx); return err },
		func(ctx context.Context) error { _, err := e.ListPrompts(ctx); return err },
		func(ctx context.Context) error {
			_, err := e.CallTool(ctx, "read_file", map[string]interface{}{"path": "/workspace/README.md"})
			return err
		},
		func(ctx context.Context) error { _, err := e.ReadResource(ctx, e.picker.ResourceURI()); return err },
	}

	count := 3 + e.picker.Intn(4)
	for i := 0; i < count; i++ {
		op := ops[e.picker.Intn(len(ops))]
		if err := op(ctx); err != nil {
			return err
		}
		e.pause(ctx)
	}
	return nil
}

// RunStress generates high-volume traffic in fixed-size bursts with a short
// pause between bursts and periodic progress logging.
func (e *Engine) RunStress(ctx context.Context, messages, burstSize int) error {
	e.log.Debug("starting stress test", "messages", messages, "burst_size", burstSize)

	if burstSize <= 0 {
		burstSize = config.DefaultBurstSize
	}

	sent := 0
	for sent < messages {
		if err := ctx.Err(); err != nil {
			return nil
		}

		burst := burstSize
		if remaining := messages - sent; remaining < burst {
			burst = remaining
		}

		for j := 0; j < burst; j++ {
			var err error
			switch e.picker.Intn(4) {
			case 0:
				_, err = e.ListTools(ctx)
			case 1:
				_, err = e.CallTool(ctx, "read_file", map[string]interface{}{
					"path": fmt.Sprintf("/file%d.txt", j),
				})
			case 2:
				_, err = e.ListResources(ctx)
			default:
				_, err = e.ReadResource(ctx, fmt.Sprintf("file:///workspace/file%d.go", j))
			}
			if err != nil {
				return err
			}
		}
		sent += burst

		if !sleepWithContext(ctx, config.InterBurstWait) {
			return nil
		}

		if sent%config.StressProgressEvery == 0 {
			e.log.Debug("progress", "sent", sent, "total", messages)
		}
	}
	return nil
}

// pause sleeps for the fixed intra-workflow delay, honoring cancellation.
func (e *Engine) pause(ctx context.Context) {
	sleepWithContext(ctx, config.IntraWorkflowWait)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
