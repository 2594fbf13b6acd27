package agent

// EventType enumerates the SSE event taxonomy the loop emits.
type EventType string

const (
	EventStatus        EventType = "status"
	EventThinking       EventType = "thinking"
	EventContentStart   EventType = "content_start"
	EventContentDelta   EventType = "content_delta"
	EventContentDone    EventType = "content_done"
	EventToolCall       EventType = "tool_call"
	EventToolExecuting  EventType = "tool_executing"
	EventToolResult     EventType = "tool_result"
	EventIterationInfo  EventType = "iteration_info"
	EventRetry          EventType = "retry"
	EventError          EventType = "error"
	EventDone           EventType = "done"
)

// Retry reasons, shared by the three recovery paths and the
// unexpected-finish-reason case.
const (
	RetryMultipleToolsCalled = "multiple_tools_called"
	RetryTextualToolCall     = "textual_tool_call"
	RetryEmptyContent        = "empty_content"
	RetryEmptyFinishReason   = "empty_finish_reason"
)

// Fatal error codes.
const (
	ErrCodeMultipleToolsMaxRetries = "MULTIPLE_TOOLS_MAX_RETRIES"
	ErrCodeTextualToolCallMaxRetries = "TEXTUAL_TOOL_CALL_MAX_RETRIES"
	ErrCodeEmptyResponseMaxRetries = "EMPTY_RESPONSE_MAX_RETRIES"
	ErrCodeUnexpectedFinishReason  = "UNEXPECTED_FINISH_REASON"
	ErrCodeMaxIterationsReached    = "MAX_ITERATIONS_REACHED"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// Event is one item of the loop's output sequence. Fields not
// relevant to Type are left zero; StreamAdapter serializes only the
// populated ones (see internal/stream).
type Event struct {
	Type EventType

	// status
	Status  string
	Message string

	// content_start / content_delta / content_done
	Delta   string
	Guarded bool

	// tool_call / tool_executing / tool_result
	ToolCallID string
	ToolName   string
	ToolInput  map[string]any
	ToolOutput map[string]any
	Success    bool

	// iteration_info
	CurrentIteration int
	MaxIterations    int

	// retry
	Reason      string
	RetryCount  int
	MaxRetries  int

	// error
	ErrorCode    string
	ErrorMessage string
	Details      map[string]any

	// done
	MessageID      string
	SessionID      string
	TotalIterations int
	TotalTimeMs    int64
}
