package command

import (
	"github.com/samsaffron/hermes-go/internal/event"
)

// strArg reads a section's value as a string, tolerating absence (optional
// sections) or an unexpected type (defensive only; the parser never produces
// anything but string/[]string per section's AllowMultiple).
func strArg(args Args, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// engineEvent wraps a single engine command event as the any the parser's
// dispatcher type-asserts to []event.Event (command.ExecuteFunc's doc
// comment: "callers type-assert to []event.Event").
func engineEvent(name event.EngineCommandName, args map[string]string) (any, error) {
	return []event.Event{event.NewEngineCommand(name, args)}, nil
}

// RegisterBuiltins installs the eleven engine commands spec §4.3 names onto
// r. These are control-plane commands: their ExecuteFunc never touches ctx,
// it only packages args into an EngineCommand event for the orchestrator's
// dispatch loop (event.EngineCommand.Execute) to apply. Grounded on the
// teacher's built-in-tool registration style (internal/tools/builtin.go's
// one-function-per-tool registration into a shared registry).
func RegisterBuiltins(r *Registry) {
	r.Register(&Command{
		Name:     "clear_history",
		HelpText: "Clears the conversation history for every participant.",
		Execute: func(_ Context, _ Args) (any, error) {
			return engineEvent(event.CommandClearHistory, nil)
		},
	})

	r.Register((&Command{
		Name:     "save_history",
		HelpText: "Saves the conversation history to a file. Omit path for a timestamped default.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandSaveHistory, map[string]string{"path": strArg(args, "path")})
		},
	}).AddSection("path", false, "Destination file path; defaults to a timestamped snapshot when omitted.", false))

	r.Register((&Command{
		Name:     "load_history",
		HelpText: "Replaces the conversation history with a previously saved snapshot.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandLoadHistory, map[string]string{"path": strArg(args, "path")})
		},
	}).AddSection("path", true, "Snapshot file path to load.", false))

	r.Register(&Command{
		Name:     "exit",
		HelpText: "Ends the conversation cycle loop.",
		Execute: func(_ Context, _ Args) (any, error) {
			return engineEvent(event.CommandExit, nil)
		},
	})

	r.Register((&Command{
		Name:     "agent_mode",
		HelpText: "Toggles agent mode (the assistant's control panel drives itself without waiting on user input).",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandAgentMode, map[string]string{"state": strArg(args, "state")})
		},
	}).AddSection("state", true, `"on" or "off".`, false))

	r.Register(&Command{
		Name:     "assistant_done",
		HelpText: "Marks the assistant as finished for the current cycle.",
		Execute: func(_ Context, _ Args) (any, error) {
			return engineEvent(event.CommandAssistantDone, nil)
		},
	})

	r.Register((&Command{
		Name:     "llm_commands_execution",
		HelpText: "Toggles whether the assistant's own command parser runs on its output.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandLLMCommandsExecution, map[string]string{"state": strArg(args, "state")})
		},
	}).AddSection("state", true, `"on" or "off".`, false))

	r.Register(&Command{
		Name:     "once",
		HelpText: "Requests the loop exit after the current cycle completes.",
		Execute: func(_ Context, _ Args) (any, error) {
			return engineEvent(event.CommandOnce, map[string]string{"state": "on"})
		},
	})

	r.Register((&Command{
		Name:     "thinking_level",
		HelpText: "Forwards a thinking-effort level to the assistant model.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandThinkingLevel, map[string]string{"level": strArg(args, "level")})
		},
	}).AddSection("level", true, "Provider-specific thinking level (e.g. low/medium/high).", false))

	r.Register((&Command{
		Name:     "deep_research_budget",
		HelpText: "Forwards a turn budget to the deep-research orchestrator, if one is active.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandDeepResearchBudget, map[string]string{"budget": strArg(args, "budget")})
		},
	}).AddSection("budget", true, "Maximum number of deep-research turns.", false))

	r.Register((&Command{
		Name:     "file_edit",
		HelpText: "Creates, appends to, prepends to, or edits a markdown section of a file.",
		Execute: func(_ Context, args Args) (any, error) {
			return engineEvent(event.CommandFileEdit, map[string]string{
				"path":         strArg(args, "path"),
				"content":      strArg(args, "content"),
				"mode":         strArg(args, "mode"),
				"section_path": strArg(args, "section_path"),
				"submode":      strArg(args, "submode"),
			})
		},
	}).
		AddSection("path", true, "Target file path.", false).
		AddSection("content", true, "Content to write.", false).
		AddSection("mode", true, "create | append | prepend | update_markdown_section.", false).
		AddSection("section_path", false, "Heading path for update_markdown_section, e.g. \"Chapter 1 > 1.1\"; end it with \"> __preface\" to target the text before that section's first child heading.", false).
		AddSection("submode", false, "replace | append, for update_markdown_section.", false))
}
