package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

const reasoningSchema = `{
	"type": "object",
	"properties": {
		"thinking_focus": {"type": "string", "description": "what you are reasoning about right now"},
		"specific_question": {"type": "string", "description": "the concrete question this reasoning step answers"}
	},
	"required": ["thinking_focus", "specific_question"]
}`

// ReasoningTool is the reply-guard tool the loop inspects directly
// (agent.ReasoningToolName). Unlike every other tool, ready_to_reply is
// never a model-supplied input: Execute computes it itself from the
// call's own history, mirroring services/tools.py's
// execute_reasoning/should_reply. A model cannot talk its way past the
// guard by simply asserting readiness.
type ReasoningTool struct{}

var _ agent.Tool = ReasoningTool{}

func (ReasoningTool) Name() string            { return agent.ReasoningToolName }
func (ReasoningTool) Description() string     { return "Think step by step before acting or replying." }
func (ReasoningTool) Schema() json.RawMessage { return json.RawMessage(reasoningSchema) }
func (ReasoningTool) IOHeavy() bool           { return false }

func (ReasoningTool) Execute(ctx context.Context, input json.RawMessage, history []agent.ChatMessage, sessionID string) (models.ToolResult, error) {
	var args struct {
		ThinkingFocus    string `json:"thinking_focus"`
		SpecificQuestion string `json:"specific_question"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return models.ToolResult{}, err
	}
	focus := args.ThinkingFocus
	if focus == "" {
		focus = "task_planning"
	}

	calls := reasoningToolCalls(history)
	plan := reasoningPlan(focus, calls, reasoningHasUserMessage(history))

	return models.ToolResult{
		Success: true,
		Fields: map[string]any{
			"thinking_focus":    args.ThinkingFocus,
			"specific_question": args.SpecificQuestion,
			"plan":              plan,
			"ready_to_reply":    shouldReply(calls, plan),
		},
	}, nil
}

// reasoningToolCall is one completed tool invocation recovered from
// the chat history, paired with whether its result reported success.
type reasoningToolCall struct {
	name    string
	success bool
}

// reasoningToolCalls walks the projected history for assistant
// tool_calls entries and pairs each with its tool-role result, the
// same accumulation execute_reasoning performs over messages_history.
func reasoningToolCalls(history []agent.ChatMessage) []reasoningToolCall {
	var calls []reasoningToolCall
	for _, m := range history {
		if m.Role != models.RoleAssistant || len(m.ToolCalls) == 0 {
			continue
		}
		for _, tc := range m.ToolCalls {
			calls = append(calls, reasoningToolCall{
				name:    tc.Function.Name,
				success: reasoningResultSucceeded(history, tc.ID),
			})
		}
	}
	return calls
}

// reasoningResultSucceeded finds the tool-role message answering
// toolCallID and reports its ToolResult.Success. A call still in
// flight (no paired result yet) counts as successful so it never
// blocks a reply that doesn't depend on it.
func reasoningResultSucceeded(history []agent.ChatMessage, toolCallID string) bool {
	for _, m := range history {
		if m.Role != models.RoleTool || m.ToolCallID != toolCallID {
			continue
		}
		return reasoningContentSucceeded(m.Content)
	}
	return true
}

func reasoningContentSucceeded(content any) bool {
	text, _ := content.(string)
	if text == "" {
		if blocks, ok := content.([]models.ContentBlock); ok && len(blocks) > 0 {
			text = blocks[0].Text
		}
	}
	if text == "" {
		return true
	}
	var result models.ToolResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return true
	}
	return result.Success
}

func reasoningHasUserMessage(history []agent.ChatMessage) bool {
	for _, m := range history {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}

// reasoningPlan builds the same short focus-driven action list
// execute_reasoning's build_plan produces. It exists only to decide
// readiness: a plan that still names a concrete next action means the
// guard stays engaged.
func reasoningPlan(thinkingFocus string, calls []reasoningToolCall, hasUserMessage bool) []string {
	if len(calls) == 0 && !hasUserMessage {
		return []string{"Clarify the user goal.", "Identify the first action to take."}
	}

	var plan []string
	if len(calls) > 0 {
		last := calls[len(calls)-1]
		if !last.success {
			plan = append(plan, "Diagnose why the last tool failed and adjust inputs or choose an alternative.")
		} else {
			plan = append(plan, "Incorporate the latest tool results and assess remaining information gaps.")
		}
	}

	switch thinkingFocus {
	case "progress_review":
		plan = append(plan, "Summarize progress for the user.", "Highlight the most important next action based on remaining gaps.")
	case "problem_analysis":
		plan = append(plan, "Outline the root cause using gathered evidence.", "Select and execute the best solution path.")
	case "task_decomposition":
		plan = append(plan, "List key subtasks in order.", "Start executing the highest-priority subtask.")
	case "strategy_adjustment":
		plan = append(plan, "Assess current strategy effectiveness.", "Adjust the plan and implement the first change.")
	default:
		plan = append(plan, "Break the main objective into manageable steps.", "Execute the first pending step and reassess.")
	}

	return plan
}

// shouldReply mirrors services/tools.py's should_reply: the agent is
// ready to answer only once the last tool call succeeded and the
// generated plan names no further action to execute.
func shouldReply(calls []reasoningToolCall, plan []string) bool {
	if len(calls) == 0 {
		return false
	}
	if !calls[len(calls)-1].success {
		return false
	}
	if len(plan) == 0 {
		return true
	}

	planText := strings.ToLower(strings.Join(plan, " "))
	for _, keyword := range []string{"execute", "start", "call", "retry", "diagnose", "adjust", "identify", "collect", "break"} {
		if strings.Contains(planText, keyword) {
			return false
		}
	}
	return true
}
