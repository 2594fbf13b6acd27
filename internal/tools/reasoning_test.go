package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

func TestReasoningToolIgnoresModelSuppliedReadyToReply(t *testing.T) {
	tool := ReasoningTool{}
	// A model asserting ready_to_reply:true with no tool history must
	// not be able to force the guard open; the field isn't even in the
	// schema any more, so it is simply ignored.
	input := json.RawMessage(`{"thinking_focus":"task_planning","specific_question":"what next?","ready_to_reply":true}`)

	result, err := tool.Execute(context.Background(), input, nil, "sess-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatal("expected a successful result")
	}
	if ready, _ := result.Fields["ready_to_reply"].(bool); ready {
		t.Fatalf("expected ready_to_reply=false with no tool history, got %+v", result.Fields)
	}
}

func TestReasoningToolNotReadyAfterFailedToolCall(t *testing.T) {
	tool := ReasoningTool{}
	input := json.RawMessage(`{"thinking_focus":"progress_review","specific_question":"did the search work?"}`)

	history := []agent.ChatMessage{
		{Role: models.RoleUser, Content: []models.ContentBlock{models.TextBlock("find me a recipe")}},
		{Role: models.RoleAssistant, ToolCalls: []agent.ChatToolCallSpec{{
			ID:       "call-1",
			Type:     "function",
			Function: agent.ChatToolCallSpecFun{Name: "web_search", Arguments: `{"query":"recipe"}`},
		}}},
		{Role: models.RoleTool, ToolCallID: "call-1", Content: `{"success":false,"error":"timeout"}`},
	}

	result, err := tool.Execute(context.Background(), input, history, "sess-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ready, _ := result.Fields["ready_to_reply"].(bool); ready {
		t.Fatalf("expected ready_to_reply=false after a failed tool call, got %+v", result.Fields)
	}
}

func TestReasoningToolReadyAfterSuccessfulToolCallWithNoFurtherAction(t *testing.T) {
	tool := ReasoningTool{}
	input := json.RawMessage(`{"thinking_focus":"progress_review","specific_question":"do we have the answer?"}`)

	history := []agent.ChatMessage{
		{Role: models.RoleUser, Content: []models.ContentBlock{models.TextBlock("what's 2+2?")}},
		{Role: models.RoleAssistant, ToolCalls: []agent.ChatToolCallSpec{{
			ID:       "call-1",
			Type:     "function",
			Function: agent.ChatToolCallSpecFun{Name: "get_current_time", Arguments: `{}`},
		}}},
		{Role: models.RoleTool, ToolCallID: "call-1", Content: `{"success":true}`},
	}

	result, err := tool.Execute(context.Background(), input, history, "sess-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ready, _ := result.Fields["ready_to_reply"].(bool); !ready {
		t.Fatalf("expected ready_to_reply=true once the plan names no further action, got %+v", result.Fields)
	}
}

func TestCurrentTimeToolRejectsUnknownTimezone(t *testing.T) {
	tool := CurrentTimeTool{}
	input := json.RawMessage(`{"timezone":"Not/AZone"}`)

	result, err := tool.Execute(context.Background(), input, nil, "sess-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Success {
		t.Fatal("expected an unknown timezone to fail gracefully")
	}
}

func TestCurrentTimeToolDefaultsToUTC(t *testing.T) {
	tool := CurrentTimeTool{}
	result, err := tool.Execute(context.Background(), nil, nil, "sess-1")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success with no input")
	}
	if result.Fields["timezone"] != "UTC" {
		t.Fatalf("expected UTC default, got %v", result.Fields["timezone"])
	}
}
