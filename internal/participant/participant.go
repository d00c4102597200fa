// Package participant implements the Participant Contract (spec §4.5): the
// abstraction over "who is speaking" — user or assistant — each exposing
// Prepare, ConsumeEventsAndRender, and GetInputAndRunCommands. Terminal
// rendering and LLM streaming are external collaborators (spec §1); this
// package only defines the seam and the two concrete participants that
// drive it, grounded on the teacher's participant-shaped abstractions in
// internal/llm/engine.go (the assistant side) generalised to the fixed
// three-method contract spec.md names.
package participant

import (
	"context"

	"github.com/samsaffron/hermes-go/internal/event"
)

// Renderer is the terminal-rendering seam (spec §1 non-goal: "terminal
// rendering... appear only as named interfaces the core consumes").
// internal/render supplies concrete implementations.
type Renderer interface {
	RenderMessage(m event.Event)
	RenderNotification(text string)
}

// Participant is the contract the orchestrator drives in a fixed order
// each cycle (spec §4.5): Prepare (optional warm-up), then
// ConsumeEventsAndRender (the side that receives looks at events + history
// snapshot), then GetInputAndRunCommands (the side that acts emits its
// events, including command side effects). Clear resets any state a
// participant keeps outside the shared history (spec §4.3's ClearHistory
// row: "history.clear(); every participant.clear()").
type Participant interface {
	Prepare(ctx context.Context) error
	ConsumeEventsAndRender(ctx context.Context, events []event.Event) error
	GetInputAndRunCommands(ctx context.Context) ([]event.Event, error)
	Clear()
}

// AgentModeAware is implemented by participants that support an
// autonomous continuation mode (spec §4.5: "the assistant exposes
// is_agent_mode_enabled() → bool").
type AgentModeAware interface {
	IsAgentModeEnabled() bool
	SetAgentModeEnabled(bool)
}
