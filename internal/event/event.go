// Package event implements the Event Model (spec §4.3): the tagged union of
// things that flow through the orchestrator's per-cycle event channel.
// Flattened into one struct with a Kind tag, following the teacher's
// EventType-enum style (internal/llm/types.go's Event) rather than an
// interface hierarchy, per spec §9's flat-variant-set guidance.
package event

import (
	"errors"
	"strconv"

	"github.com/samsaffron/hermes-go/internal/message"
)

// ErrEndOfInput signals a clean, no-commit termination of the orchestrator's
// cycle loop: EOF on stdin or an Exit engine command (spec §4.3/§4.8: "Exit
// raises EndOfInput mid-stream, which unwinds the cycle without commit").
// Defined here rather than in internal/orchestrator so EngineCommand.Execute
// can return it without an import cycle; internal/orchestrator and
// internal/participant both resolve their own same-named sentinel to this
// value.
var ErrEndOfInput = errors.New("end of input")

// Kind enumerates the event variants.
type Kind string

const (
	KindMessage          Kind = "message"
	KindHistoryRecovery  Kind = "history_recovery"
	KindNotification     Kind = "notification"
	KindEngineCommand    Kind = "engine_command"
)

// EngineCommandName enumerates the built-in engine commands spec §4.3 names.
type EngineCommandName string

const (
	CommandClearHistory         EngineCommandName = "clear_history"
	CommandSaveHistory          EngineCommandName = "save_history"
	CommandLoadHistory          EngineCommandName = "load_history"
	CommandExit                 EngineCommandName = "exit"
	CommandAgentMode            EngineCommandName = "agent_mode"
	CommandAssistantDone        EngineCommandName = "assistant_done"
	CommandLLMCommandsExecution EngineCommandName = "llm_commands_execution"
	CommandOnce                 EngineCommandName = "once"
	CommandThinkingLevel        EngineCommandName = "thinking_level"
	CommandDeepResearchBudget   EngineCommandName = "deep_research_budget"
	CommandFileEdit             EngineCommandName = "file_edit"
)

// Orchestrator is the narrow set of orchestrator operations an engine
// command is allowed to perform. Defined here (not in the orchestrator
// package) so EngineCommand.Execute can be called without an import cycle;
// the orchestrator package implements it.
type Orchestrator interface {
	ClearHistory()
	SaveHistory(path string) error
	LoadHistory(path string) error
	SetAgentMode(enabled bool)
	MarkAssistantDone()
	SetLLMCommandsExecution(enabled bool)
	SetOnceMode(enabled bool)
	SetThinkingLevel(level string)
	SetDeepResearchBudget(n int)
	RunFileEdit(req FileEditRequest) error
}

// FileEditRequest carries the FileEdit engine command's full argument set
// (spec §4.3: "FileEdit(path, content, mode, …)"). SectionPath and Submode
// only apply when Mode is "update_markdown_section"; a trailing "__preface"
// path segment is the sentinel for pre-first-child-header text (spec §4.9).
type FileEditRequest struct {
	Path        string
	Content     string
	Mode        string
	SectionPath string
	Submode     string
}

// EngineCommand is a control-plane event: a named command plus its
// arguments, carrying an Execute method that applies its effect to an
// Orchestrator (spec §4.3's "each command knows how to apply itself").
type EngineCommand struct {
	Name EngineCommandName
	Args map[string]string
}

// Execute applies the command's effect. Unknown commands (should not occur
// once the registry has validated them) are a no-op.
func (c EngineCommand) Execute(o Orchestrator) error {
	switch c.Name {
	case CommandClearHistory:
		o.ClearHistory()
		return nil
	case CommandSaveHistory:
		return o.SaveHistory(c.Args["path"])
	case CommandLoadHistory:
		return o.LoadHistory(c.Args["path"])
	case CommandExit:
		// Unlike Once (which only flips a flag checked between cycles),
		// Exit must unwind the in-flight cycle immediately with no commit,
		// so it returns the sentinel materialiseAndStripEngineCommands
		// already special-cases rather than mutating orchestrator state.
		return ErrEndOfInput
	case CommandAgentMode:
		o.SetAgentMode(c.Args["state"] != "off")
		return nil
	case CommandAssistantDone:
		o.MarkAssistantDone()
		return nil
	case CommandLLMCommandsExecution:
		o.SetLLMCommandsExecution(c.Args["state"] != "off")
		return nil
	case CommandOnce:
		o.SetOnceMode(true)
		return nil
	case CommandThinkingLevel:
		o.SetThinkingLevel(c.Args["level"])
		return nil
	case CommandDeepResearchBudget:
		n, _ := strconv.Atoi(c.Args["budget"])
		o.SetDeepResearchBudget(n)
		return nil
	case CommandFileEdit:
		return o.RunFileEdit(FileEditRequest{
			Path:        c.Args["path"],
			Content:     c.Args["content"],
			Mode:        c.Args["mode"],
			SectionPath: c.Args["section_path"],
			Submode:     c.Args["submode"],
		})
	default:
		return nil
	}
}

// Event is the tagged event carried on the orchestrator's event channel.
// Only the field matching Kind is populated.
type Event struct {
	Kind Kind

	// KindMessage
	Message message.Message

	// KindHistoryRecovery: a marker telling the receiving participant to
	// rebuild its view from the shared history. The orchestrator sends it
	// with an empty RecoveredPath.
	RecoveredPath string

	// KindNotification: a plain status line for the participant's renderer,
	// not part of the conversation history.
	Notification string

	// KindEngineCommand
	Command EngineCommand
}

// NewMessage wraps a message.Message as an event.
func NewMessage(m message.Message) Event {
	return Event{Kind: KindMessage, Message: m}
}

// NewHistoryRecovery builds a history-recovery marker carrying path (empty
// when no snapshot file is involved).
func NewHistoryRecovery(path string) Event {
	return Event{Kind: KindHistoryRecovery, RecoveredPath: path}
}

// NewNotification wraps a plain status string as an event.
func NewNotification(text string) Event {
	return Event{Kind: KindNotification, Notification: text}
}

// NewEngineCommand wraps a named command with its arguments as an event.
func NewEngineCommand(name EngineCommandName, args map[string]string) Event {
	return Event{Kind: KindEngineCommand, Command: EngineCommand{Name: name, Args: args}}
}
