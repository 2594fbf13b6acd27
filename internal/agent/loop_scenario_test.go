package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/internal/files"
	"github.com/agentcore/core/internal/sessions"
	"github.com/agentcore/core/internal/tools"
)

// stubLLMClient replays one fixed sequence of deltas per call,
// advancing to the next sequence on each subsequent Stream call; this
// mirrors the "stub LLM that returns recorded deltas" property in
// spec.md's Testable Properties scenario 6.
type stubLLMClient struct {
	calls      int
	sequences  [][]agent.CompletionDelta
}

func (s *stubLLMClient) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.CompletionDelta, error) {
	idx := s.calls
	if idx >= len(s.sequences) {
		idx = len(s.sequences) - 1
	}
	s.calls++

	out := make(chan agent.CompletionDelta, len(s.sequences[idx]))
	for _, d := range s.sequences[idx] {
		out <- d
	}
	close(out)
	return out, nil
}

func TestSingleFinalAnswerScenario(t *testing.T) {
	llm := &stubLLMClient{
		sequences: [][]agent.CompletionDelta{
			{
				{Content: "he"},
				{Content: "llo"},
				{FinishReason: "stop"},
			},
		},
	}

	history := sessions.NewMemoryStore()
	fileStore := files.NewMemoryStore()
	registry := tools.NewRegistry()
	executor := agent.NewExecutor(agent.DefaultExecutorConfig())
	guard := &agent.ToolResultGuard{}

	loop := agent.NewLoop(llm, history, fileStore, registry, executor, agent.DefaultLoopConfig(), guard)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := loop.Run(ctx, "sess-1", "", "hi", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var seen []agent.EventType
	for e := range events {
		seen = append(seen, e.Type)
		if e.Type == agent.EventError {
			t.Fatalf("unexpected error event: %+v", e)
		}
	}

	want := []agent.EventType{
		agent.EventStatus,
		agent.EventThinking,
		agent.EventContentStart,
		agent.EventContentDelta,
		agent.EventContentDelta,
		agent.EventContentDone,
		agent.EventDone,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(seen), seen)
	}
	for i, ty := range want {
		if seen[i] != ty {
			t.Fatalf("event %d: expected %s, got %s (full sequence: %+v)", i, ty, seen[i], seen)
		}
	}

	stored, err := history.GetHistory(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected a persisted user message and assistant final, got %d messages", len(stored))
	}
}

func TestMaxIterationsReachedScenario(t *testing.T) {
	toolCallDelta := func(index int, name, args string) agent.CompletionDelta {
		return agent.CompletionDelta{ToolCallDelta: &agent.ToolCallDelta{
			Index: index, ID: "call", NameFragment: name, ArgumentsFragment: args,
		}}
	}

	llm := &stubLLMClient{
		sequences: [][]agent.CompletionDelta{
			{toolCallDelta(0, "get_current_time", `{}`), {FinishReason: "tool_calls"}},
			{toolCallDelta(0, "get_current_time", `{}`), {FinishReason: "tool_calls"}},
		},
	}

	history := sessions.NewMemoryStore()
	fileStore := files.NewMemoryStore()
	registry := tools.NewRegistry()
	registry.Register(tools.CurrentTimeTool{}, tools.TierCore)
	executor := agent.NewExecutor(agent.DefaultExecutorConfig())
	guard := &agent.ToolResultGuard{}

	config := agent.DefaultLoopConfig()
	config.MaxIterations = 2
	loop := agent.NewLoop(llm, history, fileStore, registry, executor, config, guard)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := loop.Run(ctx, "sess-2", "", "what time is it", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var last agent.Event
	sawDone := false
	for e := range events {
		last = e
		if e.Type == agent.EventDone {
			sawDone = true
		}
	}
	if sawDone {
		t.Fatal("expected no done event once the iteration ceiling is reached")
	}
	if last.Type != agent.EventError || last.ErrorCode != agent.ErrCodeMaxIterationsReached {
		t.Fatalf("expected a terminal MAX_ITERATIONS_REACHED error, got %+v", last)
	}
}
