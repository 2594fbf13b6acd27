// Package stream adapts agent.Loop's event channel onto an HTTP SSE
// response, grounded on the teacher's plain net/http handler style in
// internal/web/web.go.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agentcore/core/internal/agent"
)

// frame is the wire shape of one SSE event (spec §6): type, a Unix-
// seconds timestamp, and the type-specific fields flattened alongside.
type frame struct {
	Type      agent.EventType `json:"type"`
	Timestamp int64           `json:"timestamp"`

	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	Delta   string `json:"delta,omitempty"`
	Guarded bool   `json:"guarded,omitempty"`

	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolInput  map[string]any `json:"tool_input,omitempty"`
	ToolOutput map[string]any `json:"tool_output,omitempty"`
	Success    bool           `json:"success,omitempty"`

	CurrentIteration int `json:"current_iteration,omitempty"`
	MaxIterations    int `json:"max_iterations,omitempty"`

	Reason     string `json:"reason,omitempty"`
	RetryCount int    `json:"retry_count,omitempty"`
	MaxRetries int    `json:"max_retries,omitempty"`

	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Details      map[string]any `json:"details,omitempty"`

	MessageID      string `json:"message_id,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	TotalIterations int   `json:"total_iterations,omitempty"`
	TotalTimeMs    int64  `json:"total_time_ms,omitempty"`
}

func toFrame(e agent.Event, now int64) frame {
	return frame{
		Type: e.Type, Timestamp: now,
		Status: e.Status, Message: e.Message,
		Delta: e.Delta, Guarded: e.Guarded,
		ToolCallID: e.ToolCallID, ToolName: e.ToolName,
		ToolInput: e.ToolInput, ToolOutput: e.ToolOutput, Success: e.Success,
		CurrentIteration: e.CurrentIteration, MaxIterations: e.MaxIterations,
		Reason: e.Reason, RetryCount: e.RetryCount, MaxRetries: e.MaxRetries,
		ErrorCode: e.ErrorCode, ErrorMessage: e.ErrorMessage, Details: e.Details,
		MessageID: e.MessageID, SessionID: e.SessionID,
		TotalIterations: e.TotalIterations, TotalTimeMs: e.TotalTimeMs,
	}
}

// WriteSSE drains events onto w as Server-Sent Events, flushing after
// every frame so the client sees incremental progress. nowFn is
// injected so callers can pin the timestamp in tests.
func WriteSSE(w http.ResponseWriter, events <-chan agent.Event, nowFn func() int64) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for e := range events {
		encoded, err := json.Marshal(toFrame(e, nowFn()))
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", encoded); err != nil {
			return err
		}
		flusher.Flush()
	}
	return nil
}
