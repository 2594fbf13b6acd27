// Package agent implements the agent execution core: the iteration
// loop, tool dispatch, the reasoning-guarded reply gate, the textual-
// tool-call / multiple-tool / empty-response retry state machine, and
// the event stream consumed by the transport layer.
package agent

import (
	"context"
	"encoding/json"

	"github.com/agentcore/core/pkg/models"
)

// ChatMessage is one entry of the LLM-chat-shape array passed to
// LLMClient.Stream, produced by the history projection (history.go).
type ChatMessage struct {
	Role       models.Role       `json:"role"`
	Content    any                `json:"content,omitempty"`
	ToolCalls  []ChatToolCallSpec `json:"tool_calls,omitempty"`
	ToolCallID string             `json:"tool_call_id,omitempty"`
}

// ChatToolCallSpec is the structured function-call shape attached to
// an assistant ChatMessage that recorded a tool invocation.
type ChatToolCallSpec struct {
	ID       string              `json:"id"`
	Type     string              `json:"type"`
	Function ChatToolCallSpecFun `json:"function"`
}

type ChatToolCallSpecFun struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolChoice forces the next completion to call a specific function,
// used by the loop to re-engage the reasoning tool after a retry.
type ToolChoice struct {
	Function string
}

// ToolSchema is the name/description/JSON-schema triple advertised to
// the LLMClient for one registered tool.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// CompletionRequest is one streaming chat call.
type CompletionRequest struct {
	Model      string
	Messages   []ChatMessage
	Tools      []ToolSchema
	ToolChoice *ToolChoice
}

// CompletionDelta is one unit yielded by an LLMClient stream. Exactly
// one of Content, ToolCallDelta, or a non-empty FinishReason is set
// per delta, except the final delta which always carries FinishReason.
type CompletionDelta struct {
	Content       string
	ToolCallDelta *ToolCallDelta
	FinishReason  string // "", "stop", "tool_calls", or a provider-specific value
	Err           error
}

// ToolCallDelta is one indexed fragment of an in-progress tool call.
type ToolCallDelta struct {
	Index             int
	ID                string
	NameFragment      string
	ArgumentsFragment string
}

// LLMClient exposes a streaming chat call. Implementations must be
// safe to invoke concurrently from different runs.
type LLMClient interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan CompletionDelta, error)
}

// Tool is a single registered executor. Tools declared I/O-heavy are
// dispatched through the Executor's worker pool (see executor.go);
// all others run inline, with the event-producing goroutine blocked
// until they return.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	IOHeavy() bool
	Execute(ctx context.Context, input json.RawMessage, history []ChatMessage, sessionID string) (models.ToolResult, error)
}
