// Package orchestrator implements the Conversation Orchestrator (spec
// §4.8): the cycle scheduler that alternates user and assistant turns,
// drives agent-mode continuation, intercepts engine commands, and commits
// history once per cycle.
//
// Grounded on internal/llm/engine.go's runLoop: a turn-by-turn loop with
// synchronous inline handling of control events before forwarding content
// events, plus callback-style hooks (TurnCompletedCallback) for incremental
// persistence, generalised from per-turn LLM messages to per-cycle
// MessageEvents.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samsaffron/hermes-go/internal/event"
	"github.com/samsaffron/hermes-go/internal/history"
	"github.com/samsaffron/hermes-go/internal/message"
	"github.com/samsaffron/hermes-go/internal/participant"
)

// ErrEndOfInput signals a clean termination of the main loop: EOF on stdin
// or an Exit engine command (spec §4.8 step "Exit raises EndOfInput"). Kept
// as the same value event.ErrEndOfInput and participant.ErrEndOfInput
// resolve to, so errors.Is sees through every layer it crosses.
var ErrEndOfInput = event.ErrEndOfInput

// ErrInterruption signals a user interruption (Ctrl-C) during a cycle
// (spec §7: "Local: reset uncommitted, continue").
var ErrInterruption = errors.New("interrupted")

const agentModeContinuationReminder = "Continue working, or invoke the done command if you have finished."

// shutDownSentinel is the literal kill-switch string honoured by the
// agent-mode loop (spec §9 open question (c)): preserved verbatim as a
// cross-module contract even though this core does not implement Deep
// Research itself.
const shutDownSentinel = "SHUT_DOWN_DEEP_RESEARCHER"

// MCPStatusReporter is the narrow surface the orchestrator needs from an
// MCP manager: a startup wait, an error/status summary, and error
// acknowledgement. Command synthesis is not part of it; the assistant
// participant pulls MCP-backed commands itself. internal/mcpmanager.Manager
// satisfies this.
type MCPStatusReporter interface {
	WaitForInitialLoad(ctx context.Context) error
	StatusReport() string
	HasErrors() bool
	AcknowledgeErrors()
}

// FileEditor is the File-Operations Handler seam (spec §4.9).
// internal/fileops.Handler satisfies this.
type FileEditor interface {
	RunEdit(req event.FileEditRequest) error
}

// Confirmer asks the interactive user a yes/no question, used when the MCP
// manager reports unacknowledged errors (spec §4.8 step 3c).
type Confirmer func(prompt string) bool

// Callback is invoked once per cycle after commit, mirroring the teacher's
// TurnCompletedCallback shape, generalised to whole-cycle granularity.
type Callback func(ctx context.Context, cycle int) error

// Orchestrator is the cycle scheduler. Exactly one instance drives a single
// conversation; it is not safe for concurrent use (spec §5: history is
// owned exclusively by the orchestrator, foreground is single-threaded).
type Orchestrator struct {
	history *history.History
	user    participant.Participant
	assistant participant.Participant

	mcp        MCPStatusReporter
	fileEditor FileEditor
	confirm    Confirmer

	onCycleComplete Callback

	receivedAssistantDone   bool
	shouldExitAfterOneCycle bool
	llmCommandsEnabled      bool
	mcpCommandsLoadedOnce   bool
	thinkingLevel           string
	deepResearchBudget      int

	cycleIndex int
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithMCP wires an MCP manager into Run's opening status report and step 3c
// of the cycle (the first-cycle wait and error prompt).
func WithMCP(m MCPStatusReporter) Option {
	return func(o *Orchestrator) { o.mcp = m }
}

// WithFileEditor wires the File-Operations Handler for FileEdit commands.
func WithFileEditor(f FileEditor) Option {
	return func(o *Orchestrator) { o.fileEditor = f }
}

// WithConfirmer sets the y/n prompt used when MCP errors are unacknowledged.
func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) { o.confirm = c }
}

// WithCallback registers a per-cycle completion hook (e.g. incremental
// session persistence into the sqlite catalog).
func WithCallback(cb Callback) Option {
	return func(o *Orchestrator) { o.onCycleComplete = cb }
}

// New constructs an Orchestrator driving user and assistant participants
// over h.
func New(h *history.History, user, assistant participant.Participant, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		history:            h,
		user:               user,
		assistant:          assistant,
		llmCommandsEnabled: true,
		confirm:            func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the main loop: print the MCP status report if non-null, then
// run cycles until ShouldExitAfterOneCycle is set or ErrEndOfInput
// propagates (spec §4.8).
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.mcp != nil {
		if report := o.mcp.StatusReport(); report != "" {
			o.notify(report)
		}
	}

	for !o.shouldExitAfterOneCycle {
		err := o.runOneCycle(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrInterruption):
			o.history.ResetUncommitted()
			continue
		case errors.Is(err, ErrEndOfInput):
			return err
		default:
			o.saveOnCrash(ctx)
			return fmt.Errorf("orchestrator cycle failed: %w", err)
		}
	}
	return nil
}

// runOneCycle implements spec §4.8's single-cycle algorithm.
func (o *Orchestrator) runOneCycle(ctx context.Context) (err error) {
	o.cycleIndex++
	cycle := o.cycleIndex
	slog.Debug("cycle.start", "cycle", cycle)

	o.receivedAssistantDone = false
	o.shouldExitAfterOneCycle = false

	defer func() {
		if err == nil {
			o.history.Commit()
			if o.onCycleComplete != nil {
				if cbErr := o.onCycleComplete(ctx, cycle); cbErr != nil {
					slog.Warn("cycle completion callback failed", "error", cbErr)
				}
			}
			slog.Debug("cycle.end", "cycle", cycle)
		}
	}()

	userEvents, err := o.user.GetInputAndRunCommands(ctx)
	if err != nil {
		return err
	}

	if err := o.assistant.Prepare(ctx); err != nil {
		return fmt.Errorf("assistant prepare: %w", err)
	}

	assistantInbound, err := o.materialiseAndStripEngineCommands(userEvents)
	if err != nil {
		return err
	}

	if !o.mcpCommandsLoadedOnce {
		if err := o.waitForMCPReady(ctx); err != nil {
			return err
		}
		o.mcpCommandsLoadedOnce = true
	}

	for _, e := range assistantInbound {
		if e.Kind == event.KindMessage {
			o.history.Append(e.Message)
		}
	}

	assistantView := prepend(event.NewHistoryRecovery(""), assistantInbound)
	if err := o.assistant.ConsumeEventsAndRender(ctx, assistantView); err != nil {
		return fmt.Errorf("assistant consume events: %w", err)
	}

	userInbound, err := o.runAgentModeLoop(ctx)
	if err != nil {
		return err
	}

	for _, e := range userInbound {
		if e.Kind == event.KindMessage {
			o.history.Append(e.Message)
		}
	}
	userView := prepend(event.NewHistoryRecovery(""), userInbound)
	if err := o.user.ConsumeEventsAndRender(ctx, userView); err != nil {
		return fmt.Errorf("user consume events: %w", err)
	}

	return nil
}

// runAgentModeLoop drives the assistant's get-input/emit step, repeating
// while agent mode is enabled and AssistantDone has not been received
// (spec §4.8 step 4). Engine commands are materialised and stripped as each
// round arrives, not deferred to the caller — AssistantDone only takes
// effect through o.receivedAssistantDone, so a done command buried inside a
// round must run immediately or the loop would never see it end.
func (o *Orchestrator) runAgentModeLoop(ctx context.Context) ([]event.Event, error) {
	round, err := o.assistant.GetInputAndRunCommands(ctx)
	if err != nil {
		return nil, err
	}
	collected, err := o.materialiseAndStripEngineCommands(round)
	if err != nil {
		return nil, err
	}
	if containsShutDownSentinel(collected) {
		o.receivedAssistantDone = true
	}

	aware, _ := o.assistant.(participant.AgentModeAware)

	for aware != nil && aware.IsAgentModeEnabled() && !o.receivedAssistantDone {
		continuation := event.NewMessage(message.Invisible(message.AuthorUser, agentModeContinuationReminder))
		o.history.Append(continuation.Message)

		recovery := event.NewHistoryRecovery("")
		if err := o.assistant.ConsumeEventsAndRender(ctx, []event.Event{recovery, continuation}); err != nil {
			return nil, fmt.Errorf("agent-mode continuation render: %w", err)
		}

		round, err := o.assistant.GetInputAndRunCommands(ctx)
		if err != nil {
			return nil, err
		}
		stripped, err := o.materialiseAndStripEngineCommands(round)
		if err != nil {
			return nil, err
		}
		collected = append(collected, stripped...)
		if containsShutDownSentinel(stripped) {
			o.receivedAssistantDone = true
		}
	}

	return collected, nil
}

func containsShutDownSentinel(events []event.Event) bool {
	for _, e := range events {
		if e.Kind == event.KindMessage && e.Message.ContentForAssistant() == shutDownSentinel {
			return true
		}
	}
	return false
}

// materialiseAndStripEngineCommands fully consumes events (required because
// later events may depend on earlier engine commands like history load or
// clear, spec §5), executing each EngineCommand inline and removing it from
// the forwarded stream.
func (o *Orchestrator) materialiseAndStripEngineCommands(events []event.Event) ([]event.Event, error) {
	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if e.Kind != event.KindEngineCommand {
			out = append(out, e)
			continue
		}
		if err := e.Command.Execute(o); err != nil {
			if errors.Is(err, ErrEndOfInput) {
				return nil, err
			}
			o.notify(fmt.Sprintf("command %s failed: %s", e.Command.Name, err))
		}
	}
	return out, nil
}

// waitForMCPReady blocks on the MCP manager's initial load (only on the
// first cycle that reaches this point) and, if errors are unacknowledged,
// prompts the user whether to proceed (spec §4.8 step 3c).
func (o *Orchestrator) waitForMCPReady(ctx context.Context) error {
	if o.mcp == nil {
		return nil
	}
	if err := o.mcp.WaitForInitialLoad(ctx); err != nil {
		return fmt.Errorf("wait for mcp initial load: %w", err)
	}
	if o.mcp.HasErrors() {
		report := o.mcp.StatusReport()
		if report != "" {
			o.notify(report)
		}
		if !o.confirm("MCP servers reported errors. Continue anyway?") {
			return ErrEndOfInput
		}
		o.mcp.AcknowledgeErrors()
	}
	return nil
}

func (o *Orchestrator) notify(text string) {
	slog.Info("orchestrator.notify", "text", text)
}

func (o *Orchestrator) saveOnCrash(ctx context.Context) {
	path, err := o.history.Save("")
	if err != nil {
		slog.Error("save-on-crash failed", "error", err)
		return
	}
	slog.Warn("saved history before re-raising unexpected error", "path", path)
}

func prepend(first event.Event, rest []event.Event) []event.Event {
	out := make([]event.Event, 0, len(rest)+1)
	out = append(out, first)
	out = append(out, rest...)
	return out
}

// --- event.Orchestrator implementation (spec §4.3's engine-command table) ---

func (o *Orchestrator) ClearHistory() {
	o.history.Clear()
	o.user.Clear()
	o.assistant.Clear()
}

func (o *Orchestrator) SaveHistory(path string) error {
	_, err := o.history.Save(path)
	return err
}

func (o *Orchestrator) LoadHistory(path string) error {
	return o.history.Load(path)
}

func (o *Orchestrator) SetAgentMode(enabled bool) {
	if aware, ok := o.assistant.(participant.AgentModeAware); ok {
		aware.SetAgentModeEnabled(enabled)
	}
}

func (o *Orchestrator) MarkAssistantDone() {
	o.receivedAssistantDone = true
}

// LLMCommandsSetter is implemented by assistant participants whose own
// embedded-command parsing can be toggled independently of the
// orchestrator's bookkeeping flag of the same name.
type LLMCommandsSetter interface {
	SetLLMCommandsEnabled(enabled bool)
}

func (o *Orchestrator) SetLLMCommandsExecution(enabled bool) {
	o.llmCommandsEnabled = enabled
	if setter, ok := o.assistant.(LLMCommandsSetter); ok {
		setter.SetLLMCommandsEnabled(enabled)
	}
}

func (o *Orchestrator) SetOnceMode(enabled bool) {
	o.shouldExitAfterOneCycle = enabled
}

// ThinkingLevelSetter is implemented by assistant participants that accept a
// forwarded thinking-effort level (spec §4.3: "ThinkingLevel(level) forwards
// to assistant model"). Optional, mirroring the AgentModeAware type-assertion
// pattern above, since not every Provider implementation exposes a thinking
// dial.
type ThinkingLevelSetter interface {
	SetThinkingLevel(level string)
}

func (o *Orchestrator) SetThinkingLevel(level string) {
	o.thinkingLevel = level
	if setter, ok := o.assistant.(ThinkingLevelSetter); ok {
		setter.SetThinkingLevel(level)
	}
}

func (o *Orchestrator) SetDeepResearchBudget(n int) {
	o.deepResearchBudget = n
}

func (o *Orchestrator) RunFileEdit(req event.FileEditRequest) error {
	if o.fileEditor == nil {
		return fmt.Errorf("no file-operations handler configured")
	}
	return o.fileEditor.RunEdit(req)
}
