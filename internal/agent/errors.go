package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the loop's collaborators.
var (
	ErrSessionNotFound = errors.New("agent: session not found")
	ErrEmptyMessage    = errors.New("agent: message text is required")
)

// LoopPhase names where in the iteration algorithm a fatal error
// originated, for logging and LoopError.Error().
type LoopPhase string

const (
	PhasePreamble      LoopPhase = "preamble"
	PhaseStream        LoopPhase = "stream"
	PhaseDispatch      LoopPhase = "dispatch"
	PhaseToolExecute   LoopPhase = "tool_execute"
	PhasePersist       LoopPhase = "persist"
)

// LoopError wraps a fatal condition with the iteration and phase it
// occurred in, mirroring the teacher's LoopError/ToolError pattern.
type LoopError struct {
	Code      string
	Phase     LoopPhase
	Iteration int
	Message   string
	Cause     error
}

func (e *LoopError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent: %s (phase=%s iteration=%d): %s: %v", e.Code, e.Phase, e.Iteration, e.Message, e.Cause)
	}
	return fmt.Sprintf("agent: %s (phase=%s iteration=%d): %s", e.Code, e.Phase, e.Iteration, e.Message)
}

func (e *LoopError) Unwrap() error { return e.Cause }

func fatal(code string, phase LoopPhase, iteration int, message string, cause error) *LoopError {
	return &LoopError{Code: code, Phase: phase, Iteration: iteration, Message: message, Cause: cause}
}
