package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/agentcore/core/internal/observability"
	"github.com/agentcore/core/pkg/models"
)

// ExecutorConfig configures the worker pool used for I/O-heavy tools
// (spec §5: browse, download-and-convert are dispatched off the
// event-producing goroutine so it is never blocked on blocking I/O).
type ExecutorConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// DefaultExecutorConfig mirrors the teacher's executor defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{Concurrency: 4, Timeout: 30 * time.Second}
}

// Executor runs a single tool call, recovering from panics and
// honoring per-tool I/O-heaviness: inline tools run without the
// semaphore or a timeout, I/O-heavy tools are dispatched through a
// bounded semaphore with their own timeout. Either way the tool body
// runs on its own goroutine while the caller blocks until it returns
// or ctx is done.
type Executor struct {
	sem     chan struct{}
	timeout time.Duration
	metrics *observability.Metrics
}

// SetMetrics attaches a collector every subsequent Run call records
// against; nil (the default) disables recording, matching the
// teacher's SetMetrics pattern for optional instrumentation.
func (e *Executor) SetMetrics(m *observability.Metrics) {
	e.metrics = m
}

// NewExecutor builds an Executor from cfg, filling in defaults for
// zero fields.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultExecutorConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExecutorConfig().Timeout
	}
	return &Executor{
		sem:     make(chan struct{}, cfg.Concurrency),
		timeout: cfg.Timeout,
	}
}

// Run executes tool against input. A raised error is converted to
// {success:false, error:<message>}, matching spec §4.1 step 4's tool
// failure disposition; a returned result with success:false is
// honored as-is.
func (e *Executor) Run(ctx context.Context, tool Tool, input json.RawMessage, history []ChatMessage, sessionID string) models.ToolResult {
	start := time.Now()
	result := e.run(ctx, tool, input, history, sessionID)
	if e.metrics != nil {
		e.metrics.ObserveToolCall(tool.Name(), result.Success, time.Since(start))
	}
	return result
}

func (e *Executor) run(ctx context.Context, tool Tool, input json.RawMessage, history []ChatMessage, sessionID string) models.ToolResult {
	if !tool.IOHeavy() {
		return e.runRecovered(ctx, tool, input, history, sessionID)
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return errorResult(ctx.Err())
	}
	defer func() { <-e.sem }()

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.runRecovered(execCtx, tool, input, history, sessionID)
}

func (e *Executor) runRecovered(ctx context.Context, tool Tool, input json.RawMessage, history []ChatMessage, sessionID string) (result models.ToolResult) {
	type outcome struct {
		result models.ToolResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %q panicked: %v\n%s", tool.Name(), r, debug.Stack())}
			}
		}()
		res, err := tool.Execute(ctx, input, history, sessionID)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return errorResult(out.err)
		}
		return out.result
	case <-ctx.Done():
		return errorResult(ctx.Err())
	}
}

func errorResult(err error) models.ToolResult {
	return models.ToolResult{Success: false, Error: err.Error(), Fields: map[string]any{}}
}
