package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/agentcore/core/internal/observability"
	"github.com/agentcore/core/pkg/models"
)

// Loop is the AgentLoop of spec §4.1: it consumes the four
// collaborators and emits a lazy, finite sequence of Events per turn.
type Loop struct {
	llm      LLMClient
	history  HistoryStore
	files    FileStore
	registry ToolRegistry
	executor *Executor
	config   LoopConfig
	guard    *ToolResultGuard
	locks    *sessionLocks
	metrics  *observability.Metrics

	now func() time.Time
}

// SetMetrics attaches a collector every subsequent Run call records
// against; nil (the default) disables recording.
func (l *Loop) SetMetrics(m *observability.Metrics) {
	l.metrics = m
}

// NewLoop builds a Loop from its collaborators and configuration.
func NewLoop(llm LLMClient, history HistoryStore, files FileStore, registry ToolRegistry, executor *Executor, config LoopConfig, guard *ToolResultGuard) *Loop {
	return &Loop{
		llm:      llm,
		history:  history,
		files:    files,
		registry: registry,
		executor: executor,
		config:   config,
		guard:    guard,
		locks:    newSessionLocks(),
		now:      time.Now,
	}
}

// run carries the per-turn mutable state described in spec §4.1.
type run struct {
	l *Loop

	ctx       context.Context
	sessionID string
	modelID   string
	events    chan Event
	startedAt time.Time

	chatHistory []ChatMessage

	iteration               int
	retryCount              int
	readyToReplyGuard       bool
	progressBuffer          string
	progressSegments        []string
	forceReasoningNext      bool
	selfCheckReminderInsert bool

	fullContent            string
	lastStreamGuardState   bool
	contentStartedAtAll    bool
	sniffer                *Sniffer

	phase LoopPhase
}

// Run starts a turn and returns the event channel; the channel is
// closed when the turn terminates (done or fatal error).
func (l *Loop) Run(ctx context.Context, sessionID, modelIDOverride, userText string, fileIDs []string) (<-chan Event, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}

	events := make(chan Event, 16)
	r := &run{
		l:         l,
		ctx:       ctx,
		sessionID: sessionID,
		events:    events,
		startedAt: l.now(),
	}

	go func() {
		defer close(events)
		r.runTurn(modelIDOverride, userText, fileIDs)
	}()

	return events, nil
}

func (r *run) emit(e Event) bool {
	select {
	case r.events <- e:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *run) runTurn(modelIDOverride, userText string, fileIDs []string) {
	unlock := r.l.locks.lock(r.sessionID)
	defer unlock()

	r.phase = PhasePreamble

	if !r.emit(Event{Type: EventStatus, Status: "processing", Message: "processing your request"}) {
		return
	}

	session, err := r.l.history.GetSession(r.ctx, r.sessionID)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to load session", err)
		return
	}
	r.modelID = modelIDOverride
	if r.modelID == "" {
		r.modelID = session.DefaultModelID
	}

	stored, err := r.l.history.GetHistory(r.ctx, r.sessionID)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to load history", err)
		return
	}

	projected, err := LoadHistoryForReplay(stored)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to project history", err)
		return
	}
	if len(projected) == 0 || projected[0].Role != models.RoleSystem {
		projected = append([]ChatMessage{{Role: models.RoleSystem, Content: r.l.config.SystemPrompt}}, projected...)
	}
	r.chatHistory = projected

	userContent := r.buildUserContent(userText, fileIDs)
	userJSON, err := json.Marshal(userContent)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to encode user message", err)
		return
	}
	if _, err := r.l.history.Append(r.ctx, models.Message{
		SessionID: r.sessionID,
		Role:      models.RoleUser,
		Content:   userJSON,
	}); err != nil {
		r.fatal(ErrCodeInternalError, "failed to persist user message", err)
		return
	}
	r.chatHistory = append(r.chatHistory, ChatMessage{Role: models.RoleUser, Content: userContent})

	for {
		if r.ctx.Err() != nil {
			return
		}
		if r.iteration >= r.l.config.MaxIterations {
			r.fatal(ErrCodeMaxIterationsReached, "iteration ceiling reached without a final answer", nil)
			return
		}
		if !r.runIteration() {
			return
		}
	}
}

func (r *run) buildUserContent(userText string, fileIDs []string) []models.ContentBlock {
	blocks := []models.ContentBlock{models.TextBlock(userText)}
	for _, fileID := range fileIDs {
		rec, ok, err := r.l.files.Lookup(r.ctx, fileID)
		if err != nil || !ok {
			continue
		}
		pages, err := r.l.files.Pages(r.ctx, fileID)
		if err != nil {
			continue
		}
		for _, page := range pages {
			blocks = append(blocks, models.TextBlock("\n[File: "+rec.Name+", Page "+itoa(page.PageNumber)+"]"))
			blocks = append(blocks, models.ContentBlock{
				Type:     models.BlockImageURL,
				ImageURL: &models.ImageURL{URL: webpDataURI(page.Data)},
			})
		}
	}
	return blocks
}

// runIteration executes one LLM round trip and its dispatch. It
// returns false when the turn has terminated (done or fatal error).
func (r *run) runIteration() bool {
	r.phase = PhaseStream
	if r.l.metrics != nil {
		r.l.metrics.Iterations.Inc()
	}
	if !r.emit(Event{Type: EventThinking, Message: "thinking"}) {
		return false
	}

	var toolChoice *ToolChoice
	if r.forceReasoningNext {
		toolChoice = &ToolChoice{Function: ReasoningToolName}
	}

	deltas, err := r.l.llm.Stream(r.ctx, CompletionRequest{
		Model:      r.modelID,
		Messages:   r.chatHistory,
		Tools:      r.l.registry.Schemas(),
		ToolChoice: toolChoice,
	})
	if err != nil {
		r.fatal(ErrCodeInternalError, "llm stream failed to start", err)
		return false
	}

	r.fullContent = ""
	r.sniffer = &Sniffer{}
	toolCallsBuf := map[int]*models.ToolCall{}
	toolCallOrder := []int{}
	finishReason := ""
	var textualCandidates []SniffedCall

	for delta := range deltas {
		if r.ctx.Err() != nil {
			return false
		}
		if delta.Err != nil {
			r.fatal(ErrCodeInternalError, "llm stream error", delta.Err)
			return false
		}
		if delta.Content != "" {
			segments := r.sniffer.Feed(delta.Content)
			if !r.handleSegments(segments, &textualCandidates) {
				return false
			}
		}
		if delta.ToolCallDelta != nil {
			r.accumulateToolCall(toolCallsBuf, &toolCallOrder, *delta.ToolCallDelta)
		}
		if delta.FinishReason != "" {
			finishReason = delta.FinishReason
		}
	}

	finalSegments := r.sniffer.Final()
	if !r.handleSegments(finalSegments, &textualCandidates) {
		return false
	}

	if finishReason == "" && len(toolCallOrder) == 0 && strings.TrimSpace(r.fullContent) != "" {
		finishReason = "stop"
	}

	switch finishReason {
	case "tool_calls":
		return r.dispatchToolCalls(toolCallsBuf, toolCallOrder)
	case "stop":
		return r.dispatchStop(textualCandidates)
	default:
		return r.dispatchUnexpected(finishReason)
	}
}

func (r *run) handleSegments(segments []Segment, textualCandidates *[]SniffedCall) bool {
	for _, seg := range segments {
		if seg.Withheld {
			*textualCandidates = append(*textualCandidates, seg.Calls...)
			continue
		}
		if seg.Text == "" {
			continue
		}
		if r.readyToReplyGuard != r.lastStreamGuardState || !r.contentStartedAtAll {
			if !r.emit(Event{Type: EventContentStart, Message: "reply", Guarded: r.readyToReplyGuard}) {
				return false
			}
			r.lastStreamGuardState = r.readyToReplyGuard
			r.contentStartedAtAll = true
		}
		if r.readyToReplyGuard {
			r.progressBuffer += seg.Text
		} else {
			r.fullContent += seg.Text
		}
		if !r.emit(Event{Type: EventContentDelta, Delta: seg.Text, Guarded: r.readyToReplyGuard}) {
			return false
		}
	}
	return true
}

func (r *run) accumulateToolCall(buf map[int]*models.ToolCall, order *[]int, delta ToolCallDelta) {
	tc, ok := buf[delta.Index]
	if !ok {
		tc = &models.ToolCall{}
		buf[delta.Index] = tc
		*order = append(*order, delta.Index)
	}
	if delta.ID != "" {
		tc.ID = delta.ID
	}
	if delta.NameFragment != "" {
		tc.Name = delta.NameFragment
	}
	if delta.ArgumentsFragment != "" {
		tc.Arguments = append(tc.Arguments, []byte(delta.ArgumentsFragment)...)
	}
}

func (r *run) dispatchToolCalls(buf map[int]*models.ToolCall, order []int) bool {
	r.phase = PhaseDispatch
	calls := make([]*models.ToolCall, 0, len(order))
	for _, idx := range order {
		calls = append(calls, buf[idx])
	}

	if len(calls) > 1 {
		return r.retryOrFail(RetryMultipleToolsCalled, ErrCodeMultipleToolsMaxRetries, r.l.config.MultipleToolsWarning, false)
	}

	call := calls[0]
	name := strings.TrimPrefix(call.Name, "functions.")
	var input json.RawMessage
	if json.Valid(call.Arguments) {
		input = call.Arguments
	} else {
		wrapped, _ := json.Marshal(map[string]string{"raw": string(call.Arguments)})
		input = wrapped
	}

	currentIteration := r.iteration + 1
	if !r.emit(Event{Type: EventIterationInfo, CurrentIteration: currentIteration, MaxIterations: r.l.config.MaxIterations, Message: "executing tool"}) {
		return false
	}
	if !r.emit(Event{Type: EventToolCall, ToolCallID: call.ID, ToolName: name, ToolInput: toMap(input)}) {
		return false
	}
	if !r.emit(Event{Type: EventToolExecuting, ToolCallID: call.ID, ToolName: name, Message: "running " + name}) {
		return false
	}

	tool, ok := r.l.registry.Get(name)
	var result models.ToolResult
	if !ok {
		result = models.ToolResult{Success: false, Error: "unknown tool: " + name, Fields: map[string]any{}}
	} else {
		r.phase = PhaseToolExecute
		result = r.l.executor.Run(r.ctx, tool, input, r.chatHistory, r.sessionID)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to encode tool result", err)
		return false
	}

	if !r.emit(Event{Type: EventToolResult, ToolCallID: call.ID, ToolName: name, ToolOutput: toMap(resultJSON), Success: result.Success}) {
		return false
	}

	persistedOutput := r.l.guard.Apply(name, resultJSON)

	r.phase = PhasePersist
	if _, err := r.l.history.Append(r.ctx, models.Message{
		SessionID:  r.sessionID,
		Role:       models.RoleAssistant,
		ToolCallID: call.ID,
		ToolName:   name,
		ToolInput:  input,
	}); err != nil {
		r.fatal(ErrCodeInternalError, "failed to persist tool-call record", err)
		return false
	}
	if _, err := r.l.history.Append(r.ctx, models.Message{
		SessionID:  r.sessionID,
		Role:       models.RoleTool,
		ToolCallID: call.ID,
		ToolName:   name,
		ToolOutput: persistedOutput,
	}); err != nil {
		r.fatal(ErrCodeInternalError, "failed to persist tool result", err)
		return false
	}

	r.chatHistory = append(r.chatHistory,
		ChatMessage{Role: models.RoleAssistant, ToolCalls: []ChatToolCallSpec{{
			ID: call.ID, Type: "function",
			Function: ChatToolCallSpecFun{Name: name, Arguments: string(input)},
		}}},
	)
	projected, _ := ProjectToolResult(result)
	r.chatHistory = append(r.chatHistory, ChatMessage{Role: models.RoleTool, Content: projected, ToolCallID: call.ID})

	if result.FileID != "" {
		if !r.hoistArtifact(result) {
			return false
		}
	}

	if name == ReasoningToolName {
		if ready, ok := result.Fields["ready_to_reply"].(bool); ok {
			if ready {
				if r.l.config.SelfCheckReminder != "" && !r.selfCheckReminderInsert {
					r.appendSystemReminder(r.l.config.SelfCheckReminder)
					r.selfCheckReminderInsert = true
				}
				if r.progressBuffer != "" {
					r.progressSegments = append(r.progressSegments, r.progressBuffer)
					r.progressBuffer = ""
				}
				r.readyToReplyGuard = false
			} else {
				r.readyToReplyGuard = true
				r.appendSystemReminderDeduped(r.l.config.ReadyToReplyReminder)
			}
		}
	}

	r.retryCount = 0
	r.forceReasoningNext = false
	r.iteration = currentIteration
	return true
}

func (r *run) hoistArtifact(result models.ToolResult) bool {
	pages, err := r.l.files.Pages(r.ctx, result.FileID)
	if err != nil {
		return true // non-fatal: skip the hoist silently
	}
	note := result.Note
	header := "(tool) " + note + " (file_id=" + result.FileID + ", pages=" + itoa(len(pages)) + ")"
	blocks := []models.ContentBlock{models.TextBlock(header)}
	for _, page := range pages {
		blocks = append(blocks, models.ContentBlock{
			Type:     models.BlockImageURL,
			ImageURL: &models.ImageURL{URL: webpDataURI(page.Data)},
		})
	}
	encoded, err := json.Marshal(blocks)
	if err != nil {
		return true
	}
	if _, err := r.l.history.Append(r.ctx, models.Message{
		SessionID: r.sessionID,
		Role:      models.RoleAssistant,
		ToolName:  models.AssistantArtifactTool,
		Content:   encoded,
	}); err != nil {
		r.fatal(ErrCodeInternalError, "failed to persist artifact hoist", err)
		return false
	}
	r.chatHistory = append(r.chatHistory, ChatMessage{Role: models.RoleAssistant, Content: blocks})
	return true
}

func (r *run) dispatchStop(textualCandidates []SniffedCall) bool {
	if len(textualCandidates) > 0 {
		return r.retryOrFail(RetryTextualToolCall, ErrCodeTextualToolCallMaxRetries, r.l.config.TextualToolCallReminder, true)
	}
	if r.readyToReplyGuard {
		if r.progressBuffer != "" {
			r.progressSegments = append(r.progressSegments, r.progressBuffer)
			r.progressBuffer = ""
		}
		if !r.emit(Event{Type: EventStatus, Status: "awaiting_more_actions", Message: "continuing work before replying"}) {
			return false
		}
		r.appendSystemReminderDeduped(r.l.config.ReadyToReplyReminder)
		return true
	}
	if strings.TrimSpace(r.fullContent) == "" {
		return r.retryOrFail(RetryEmptyContent, ErrCodeEmptyResponseMaxRetries, r.l.config.EmptyContentReminder, true)
	}

	if r.progressBuffer != "" {
		r.progressSegments = append(r.progressSegments, r.progressBuffer)
		r.progressBuffer = ""
	}
	final := models.NewAssistantFinal(r.fullContent, r.progressSegments)
	encoded, err := json.Marshal(final)
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to encode final answer", err)
		return false
	}
	msg, err := r.l.history.Append(r.ctx, models.Message{
		SessionID: r.sessionID,
		Role:      models.RoleAssistant,
		Content:   encoded,
		ModelID:   r.modelID,
	})
	if err != nil {
		r.fatal(ErrCodeInternalError, "failed to persist final answer", err)
		return false
	}
	r.forceReasoningNext = false

	if !r.emit(Event{Type: EventContentDone, Guarded: false}) {
		return false
	}
	if r.l.metrics != nil {
		r.l.metrics.RunsCompleted.Inc()
		r.l.metrics.RunDuration.Observe(r.l.now().Sub(r.startedAt).Seconds())
	}
	r.emit(Event{
		Type:            EventDone,
		MessageID:       msg.ID,
		SessionID:       r.sessionID,
		TotalIterations: r.iteration,
		TotalTimeMs:     r.l.now().Sub(r.startedAt).Milliseconds(),
	})
	return false
}

func (r *run) dispatchUnexpected(finishReason string) bool {
	return r.retryOrFail(RetryEmptyFinishReason, ErrCodeUnexpectedFinishReason, r.l.config.EmptyContentReminder, true)
}

// retryOrFail implements the shared retry-budget pattern used by all
// four recoverable paths; setForceReasoning requests tool_choice be
// pinned to the reasoning tool on the next attempt.
func (r *run) retryOrFail(reason, fatalCode, reminder string, setForceReasoning bool) bool {
	if r.retryCount >= r.l.config.MaxRetryOnMultipleTools {
		r.fatal(fatalCode, "exceeded retry budget for "+reason, nil)
		return false
	}
	r.retryCount++
	if r.l.metrics != nil {
		r.l.metrics.Retries.WithLabelValues(reason).Inc()
	}
	if !r.emit(Event{
		Type:       EventRetry,
		Reason:     reason,
		RetryCount: r.retryCount,
		MaxRetries: r.l.config.MaxRetryOnMultipleTools,
		Message:    reminder,
	}) {
		return false
	}
	r.appendSystemReminder(reminder)
	if setForceReasoning {
		r.forceReasoningNext = true
	}
	return true
}

func (r *run) appendSystemReminder(text string) {
	if text == "" {
		return
	}
	r.chatHistory = append(r.chatHistory, ChatMessage{Role: models.RoleSystem, Content: text})
}

func (r *run) appendSystemReminderDeduped(text string) {
	if text == "" {
		return
	}
	if n := len(r.chatHistory); n > 0 {
		tail := r.chatHistory[n-1]
		if tail.Role == models.RoleSystem {
			if s, ok := tail.Content.(string); ok && s == text {
				return
			}
		}
	}
	r.appendSystemReminder(text)
}

func (r *run) fatal(code, message string, cause error) {
	loopErr := fatal(code, r.phase, r.iteration, message, cause)
	details := map[string]any{"phase": string(loopErr.Phase), "iteration": loopErr.Iteration}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	if r.l.metrics != nil {
		r.l.metrics.RunsFailed.WithLabelValues(code).Inc()
	}
	r.emit(Event{Type: EventError, ErrorCode: code, ErrorMessage: loopErr.Error(), Details: details})
}

func toMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return m
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func webpDataURI(data []byte) string {
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(data)
}
