package participant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samsaffron/hermes-go/internal/command"
	"github.com/samsaffron/hermes-go/internal/event"
	"github.com/samsaffron/hermes-go/internal/history"
	"github.com/samsaffron/hermes-go/internal/message"
	"github.com/samsaffron/hermes-go/internal/parser"
	"github.com/samsaffron/hermes-go/internal/providerapi"
)

// MCPCommandSource synthesises command.Commands from the currently
// connected MCP tool set (spec §4.8 step 3d: "update the assistant's
// registered MCP-backed commands from the current manager snapshot").
// internal/mcpmanager.Manager satisfies this.
type MCPCommandSource interface {
	CreateCommandsForMode(notify func(commandName, output string)) []*command.Command
}

// Assistant is the LLM-backed Participant (spec §4.5). It streams a
// provider response, appends it to its own provider-facing message list
// (the shared history is only read here), and runs the embedded command parser over the finished text so the
// model can issue commands through the same block syntax the user does.
//
// Grounded on internal/llm/engine.go's per-turn shape (stream the
// provider, accumulate text, then act on what came back) collapsed from
// that file's multi-turn tool-calling loop into this module's one-shot
// per-cycle contract — agentic continuation here is the orchestrator's
// agent-mode loop (internal/orchestrator), not a loop internal to this
// participant.
type Assistant struct {
	history  *history.History
	provider providerapi.Provider
	model    string

	systemPrompt string
	registry     *command.Registry
	parser       *parser.Parser

	mcp    MCPCommandSource
	notify func(commandName, output string)

	mu                 sync.Mutex
	agentModeEnabled   bool
	llmCommandsEnabled bool
	thinkingLevel      string
	messages           []providerapi.Message
}

// NewAssistant constructs an Assistant driving provider with model,
// prepending systemPrompt to every request, and dispatching embedded
// commands through registry. h is the shared history the orchestrator owns;
// the assistant only ever reads from it (spec §5: "only the orchestrator
// mutates it").
func NewAssistant(h *history.History, provider providerapi.Provider, model, systemPrompt string, registry *command.Registry) *Assistant {
	return &Assistant{
		history:            h,
		provider:           provider,
		model:              model,
		systemPrompt:       systemPrompt,
		registry:           registry,
		parser:             parser.New(registry),
		llmCommandsEnabled: true,
	}
}

// WithMCPSource wires an MCP manager (or test double) supplying dynamically
// registered tool commands each cycle.
func (a *Assistant) WithMCPSource(src MCPCommandSource, notify func(commandName, output string)) *Assistant {
	a.mcp = src
	a.notify = notify
	return a
}

// Prepare refreshes the assistant's MCP-backed commands from the current
// manager snapshot, if one is wired (spec §4.8 step 3d). Performed here,
// one cycle step earlier than the pseudocode's literal placement (after the
// MCP wait, before consume_events_and_render) — by the time this
// participant's GetInputAndRunCommands dispatches any command later in the
// same cycle, the registry already reflects the snapshot, so the intent of
// step 3d is preserved without this participant depending on the
// orchestrator's wait-for-initial-load timing.
func (a *Assistant) Prepare(ctx context.Context) error {
	if a.mcp == nil {
		return nil
	}
	for _, cmd := range a.mcp.CreateCommandsForMode(a.notify) {
		a.registry.Register(cmd)
	}
	return nil
}

// ConsumeEventsAndRender folds inbound events into the provider-facing
// message list. A KindHistoryRecovery event rebuilds the list from the
// shared history's assistant-filtered view (spec §3: "an author's own
// directly-entered input is still fed back to the model" — only the
// author's own view of their own input is hidden, never the assistant's).
func (a *Assistant) ConsumeEventsAndRender(ctx context.Context, events []event.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range events {
		switch e.Kind {
		case event.KindHistoryRecovery:
			a.messages = a.buildMessages()
		case event.KindMessage:
			a.messages = append(a.messages, toProviderMessage(e.Message))
		}
	}
	return nil
}

// Clear discards the provider-facing message list (spec §4.3's
// ClearHistory row). The next KindHistoryRecovery event rebuilds it from
// the shared history, which ClearHistory has also just wiped, so the
// assistant's next request carries only its system prompt.
func (a *Assistant) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = nil
}

func (a *Assistant) buildMessages() []providerapi.Message {
	hist := a.history.GetHistoryFor(message.AuthorAssistant)
	out := make([]providerapi.Message, 0, len(hist)+1)
	if a.systemPrompt != "" {
		out = append(out, providerapi.Message{
			Role:  providerapi.RoleSystem,
			Parts: []providerapi.Part{{Type: "text", Text: a.systemPrompt}},
		})
	}
	for _, m := range hist {
		out = append(out, toProviderMessage(m))
	}
	return out
}

func toProviderMessage(m message.Message) providerapi.Message {
	role := providerapi.RoleUser
	switch m.Author {
	case message.AuthorAssistant:
		role = providerapi.RoleAssistant
	case message.AuthorSystem:
		role = providerapi.RoleSystem
	}
	return providerapi.Message{
		Role:  role,
		Parts: []providerapi.Part{{Type: "text", Text: m.ContentForAssistant()}},
	}
}

// GetInputAndRunCommands streams one provider response, appends it to the
// provider-facing message list, returns it as a plain assistant message
// event (the orchestrator records it in history), and — when command
// execution is enabled — parses the response for embedded command blocks
// and dispatches each valid one, folding the results into the returned
// event stream (spec §4.1: "execute... may yield events").
func (a *Assistant) GetInputAndRunCommands(ctx context.Context) ([]event.Event, error) {
	a.mu.Lock()
	req := providerapi.Request{
		Model:    a.model,
		Messages: append([]providerapi.Message(nil), a.messages...),
		Tools:    a.toolSpecs(),
	}
	a.mu.Unlock()

	stream, err := a.provider.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("assistant stream: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("assistant stream recv: %w", err)
		}
		switch ev.Type {
		case providerapi.EventTextDelta:
			text.WriteString(ev.Text)
		case providerapi.EventError:
			return nil, fmt.Errorf("provider error: %w", ev.Err)
		case providerapi.EventDone:
			goto streamDone
		}
	}
streamDone:

	full := text.String()
	reply := message.Plain(message.AuthorAssistant, full, false)

	a.mu.Lock()
	a.messages = append(a.messages, providerapi.Message{
		Role:  providerapi.RoleAssistant,
		Parts: []providerapi.Part{{Type: "text", Text: full}},
	})
	enabled := a.llmCommandsEnabled
	a.mu.Unlock()

	out := []event.Event{event.NewMessage(reply)}
	if !enabled {
		return out, nil
	}
	return append(out, a.runEmbeddedCommands(full)...), nil
}

// runEmbeddedCommands parses text for block-form commands and executes
// every valid result, translating each command's own return value into
// events: builtins return []event.Event directly (spec §4.3's engine
// commands), MCP-tool commands return a plain string result which becomes
// a CommandOutput message (spec §3).
func (a *Assistant) runEmbeddedCommands(text string) []event.Event {
	results := a.parser.Parse(text)

	var out []event.Event
	if report := parser.ErrorReport(results); report != "" {
		out = append(out, event.NewMessage(message.AssistantNotification(report)))
	}

	for _, r := range results {
		if !r.Valid() {
			continue
		}
		cmd, ok := a.registry.Get(r.CommandName)
		if !ok {
			continue
		}
		result, err := cmd.Execute(nil, r.Args)
		if err != nil {
			out = append(out, event.NewMessage(message.AssistantNotification(
				fmt.Sprintf("command %s failed: %s", r.CommandName, err))))
			continue
		}
		switch v := result.(type) {
		case []event.Event:
			out = append(out, v...)
		case string:
			out = append(out, event.NewMessage(message.CommandOutput(r.CommandName, v)))
		}
	}
	return out
}

// toolSpecs exposes the registered commands to the provider as callable
// tools, for providers whose model prefers native tool-calling over the
// embedded block syntax (spec §1 non-goal scopes out a native-tool-calling
// implementation, but the seam costs nothing to populate).
func (a *Assistant) toolSpecs() []providerapi.ToolSpec {
	all := a.registry.All()
	specs := make([]providerapi.ToolSpec, 0, len(all))
	for name, cmd := range all {
		properties := make(map[string]any, len(cmd.Sections))
		var required []string
		for _, s := range cmd.Sections {
			properties[s.Name] = map[string]any{"type": "string", "description": s.HelpText}
			if s.Required {
				required = append(required, s.Name)
			}
		}
		specs = append(specs, providerapi.ToolSpec{
			Name:        name,
			Description: cmd.HelpText,
			Schema: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return specs
}

// IsAgentModeEnabled and SetAgentModeEnabled satisfy participant.AgentModeAware.
func (a *Assistant) IsAgentModeEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.agentModeEnabled
}

func (a *Assistant) SetAgentModeEnabled(enabled bool) {
	a.mu.Lock()
	a.agentModeEnabled = enabled
	a.mu.Unlock()
}

// SetLLMCommandsEnabled toggles whether GetInputAndRunCommands parses its
// own output for embedded commands (the LLMCommandsExecution engine
// command's effect, spec §4.3).
func (a *Assistant) SetLLMCommandsEnabled(enabled bool) {
	a.mu.Lock()
	a.llmCommandsEnabled = enabled
	a.mu.Unlock()
}

// SetThinkingLevel satisfies internal/orchestrator.ThinkingLevelSetter.
func (a *Assistant) SetThinkingLevel(level string) {
	a.mu.Lock()
	a.thinkingLevel = level
	a.mu.Unlock()
}
