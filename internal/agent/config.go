package agent

// LoopConfig carries the tunables the core consumes (spec §6): these
// are configuration, not constants, and must be threaded through
// construction rather than read from process-wide state (spec §9).
type LoopConfig struct {
	MaxIterations            int    `yaml:"max_iterations" json:"max_iterations"`
	MaxRetryOnMultipleTools  int    `yaml:"max_retry_on_multiple_tools" json:"max_retry_on_multiple_tools"`
	SystemPrompt             string `yaml:"system_prompt" json:"system_prompt"`
	MultipleToolsWarning     string `yaml:"multiple_tools_warning" json:"multiple_tools_warning"`
	SelfCheckReminder        string `yaml:"self_check_reminder" json:"self_check_reminder"`
	ReadyToReplyReminder     string `yaml:"ready_to_reply_reminder" json:"ready_to_reply_reminder"`
	TextualToolCallReminder  string `yaml:"textual_tool_call_reminder" json:"textual_tool_call_reminder"`
	EmptyContentReminder     string `yaml:"empty_content_reminder" json:"empty_content_reminder"`
}

// DefaultLoopConfig mirrors the reminder/budget texts used by the
// reference implementation this core was distilled from.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations:           25,
		MaxRetryOnMultipleTools: 3,
		SystemPrompt:            "You are a careful, tool-using assistant. Use the reasoning tool to plan before replying on non-trivial tasks, and call at most one tool per turn.",
		MultipleToolsWarning:    "You called more than one tool in a single turn. Call exactly one tool, then wait for its result before calling another.",
		SelfCheckReminder:       "Before replying, double-check your answer addresses the user's request completely and is consistent with the tool results gathered so far.",
		ReadyToReplyReminder: "Your most recent reasoning tool call returned `ready_to_reply` as false, which means you do not yet have" +
			" enough information to give a final answer. If you believe the conversation is ready for a final response, call the reasoning tool again to" +
			" review the evidence; otherwise, keep executing the next step.",
		TextualToolCallReminder: "Do not write tool-call JSON directly in your reply text. Use the structured tool-call channel, and call at most one tool.",
		EmptyContentReminder:    "Your last response had no content and requested no tool. Either call a tool or provide a substantive reply.",
	}
}

// ReasoningToolName is the one tool name the loop inspects directly
// for the ready_to_reply reply-guard signal (spec §4.4).
const ReasoningToolName = "reasoning"
