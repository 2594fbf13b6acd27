package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentcore/core/pkg/models"
)

type stubTool struct {
	name    string
	ioHeavy bool
	result  models.ToolResult
	err     error
	panics  bool
	delay   time.Duration
}

func (t stubTool) Name() string            { return t.name }
func (t stubTool) Description() string     { return "stub" }
func (t stubTool) Schema() json.RawMessage { return json.RawMessage(`{}`) }
func (t stubTool) IOHeavy() bool           { return t.ioHeavy }

func (t stubTool) Execute(ctx context.Context, input json.RawMessage, history []ChatMessage, sessionID string) (models.ToolResult, error) {
	if t.panics {
		panic("boom")
	}
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return models.ToolResult{}, ctx.Err()
		}
	}
	return t.result, t.err
}

func TestExecutorRunInlineTool(t *testing.T) {
	executor := NewExecutor(DefaultExecutorConfig())
	tool := stubTool{name: "reasoning", result: models.ToolResult{Success: true}}

	result := executor.Run(context.Background(), tool, json.RawMessage(`{}`), nil, "sess-1")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestExecutorConvertsErrorToFailureResult(t *testing.T) {
	executor := NewExecutor(DefaultExecutorConfig())
	boom := errTestTool{}
	tool := stubTool{name: "browse", ioHeavy: true, err: boom}

	result := executor.Run(context.Background(), tool, json.RawMessage(`{}`), nil, "sess-1")
	if result.Success {
		t.Fatal("expected a failed result")
	}
	if result.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestExecutorRecoversFromPanic(t *testing.T) {
	executor := NewExecutor(DefaultExecutorConfig())
	tool := stubTool{name: "browse", ioHeavy: true, panics: true}

	result := executor.Run(context.Background(), tool, json.RawMessage(`{}`), nil, "sess-1")
	if result.Success {
		t.Fatal("expected a failed result after panic recovery")
	}
}

func TestExecutorHonorsPerCallTimeout(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{Concurrency: 1, Timeout: 10 * time.Millisecond})
	tool := stubTool{name: "browse", ioHeavy: true, delay: 100 * time.Millisecond}

	start := time.Now()
	result := executor.Run(context.Background(), tool, json.RawMessage(`{}`), nil, "sess-1")
	if result.Success {
		t.Fatal("expected the call to time out")
	}
	if elapsed := time.Since(start); elapsed > 80*time.Millisecond {
		t.Fatalf("expected the timeout to cut the call short, took %s", elapsed)
	}
}

type errTestTool struct{}

func (errTestTool) Error() string { return "boom" }
