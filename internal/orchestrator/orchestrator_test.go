package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/samsaffron/hermes-go/internal/event"
	"github.com/samsaffron/hermes-go/internal/history"
	"github.com/samsaffron/hermes-go/internal/message"
)

// fakeParticipant is a scriptable participant.Participant for cycle tests.
type fakeParticipant struct {
	prepareErr error

	inputQueue [][]event.Event
	inputErr   error
	inputErrs  []error // returned one per call, before inputErr/inputQueue

	agentModeEnabled bool

	consumed [][]event.Event
	cleared  bool
}

func (f *fakeParticipant) Prepare(ctx context.Context) error { return f.prepareErr }

func (f *fakeParticipant) ConsumeEventsAndRender(ctx context.Context, events []event.Event) error {
	f.consumed = append(f.consumed, events)
	return nil
}

func (f *fakeParticipant) GetInputAndRunCommands(ctx context.Context) ([]event.Event, error) {
	if len(f.inputErrs) > 0 {
		err := f.inputErrs[0]
		f.inputErrs = f.inputErrs[1:]
		return nil, err
	}
	if f.inputErr != nil {
		return nil, f.inputErr
	}
	if len(f.inputQueue) == 0 {
		return nil, nil
	}
	next := f.inputQueue[0]
	f.inputQueue = f.inputQueue[1:]
	return next, nil
}

func (f *fakeParticipant) IsAgentModeEnabled() bool   { return f.agentModeEnabled }
func (f *fakeParticipant) SetAgentModeEnabled(v bool) { f.agentModeEnabled = v }

func (f *fakeParticipant) Clear() { f.cleared = true }

func TestRunOneCycleAppendsMessagesAndCommitsHistory(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{
		inputQueue: [][]event.Event{
			{event.NewMessage(message.Plain(message.AuthorUser, "hello", true))},
		},
	}
	assistant := &fakeParticipant{
		inputQueue: [][]event.Event{
			{event.NewMessage(message.Plain(message.AuthorAssistant, "hi there", false))},
		},
	}

	o := New(h, user, assistant)
	if err := o.runOneCycle(context.Background()); err != nil {
		t.Fatalf("runOneCycle: %v", err)
	}

	all := h.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 committed messages, got %d", len(all))
	}
	if all[0].Message.Text != "hello" || all[1].Message.Text != "hi there" {
		t.Fatalf("unexpected history contents: %+v", all)
	}
}

func TestAgentModeLoopStopsOnAssistantDone(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{}
	doneCmd := event.NewEngineCommand(event.CommandAssistantDone, nil)
	assistant := &fakeParticipant{
		agentModeEnabled: true,
		inputQueue: [][]event.Event{
			{event.NewMessage(message.Plain(message.AuthorAssistant, "working...", false))},
			{doneCmd},
		},
	}

	o := New(h, user, assistant)
	if err := o.runOneCycle(context.Background()); err != nil {
		t.Fatalf("runOneCycle: %v", err)
	}
	if !o.receivedAssistantDone {
		t.Errorf("expected receivedAssistantDone to be set once the done command executed")
	}
}

func TestAgentModeLoopStopsOnShutDownSentinel(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{}
	assistant := &fakeParticipant{
		agentModeEnabled: true,
		inputQueue: [][]event.Event{
			{event.NewMessage(message.Plain(message.AuthorAssistant, shutDownSentinel, false))},
		},
	}

	o := New(h, user, assistant)
	if err := o.runOneCycle(context.Background()); err != nil {
		t.Fatalf("runOneCycle: %v", err)
	}
	if !o.receivedAssistantDone {
		t.Errorf("expected the sentinel to end the agent-mode loop")
	}
}

func TestExitCommandAbortsCycleWithoutCommit(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{
		inputQueue: [][]event.Event{
			{
				event.NewMessage(message.Plain(message.AuthorUser, "hello", true)),
				event.NewEngineCommand(event.CommandExit, nil),
			},
		},
	}
	assistant := &fakeParticipant{
		inputQueue: [][]event.Event{
			{event.NewMessage(message.Plain(message.AuthorAssistant, "should never be committed", false))},
		},
	}

	o := New(h, user, assistant)

	err := o.runOneCycle(context.Background())
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("expected ErrEndOfInput, got %v", err)
	}
	if len(h.All()) != 0 {
		t.Errorf("expected no committed messages after Exit, got %+v", h.All())
	}
	if len(assistant.consumed) != 0 {
		t.Errorf("expected Exit to abort before the assistant's turn, got %+v", assistant.consumed)
	}
}

func TestClearHistoryClearsParticipantsToo(t *testing.T) {
	h := history.New()
	h.Append(message.Plain(message.AuthorUser, "leftover", true))
	h.Commit()

	user := &fakeParticipant{}
	assistant := &fakeParticipant{}

	o := New(h, user, assistant)
	o.ClearHistory()

	if len(h.All()) != 0 {
		t.Errorf("expected history cleared, got %+v", h.All())
	}
	if !user.cleared || !assistant.cleared {
		t.Errorf("expected both participants cleared, got user=%v assistant=%v", user.cleared, assistant.cleared)
	}
}

func TestOnceModeExitsAfterOneCycle(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{
		inputQueue: [][]event.Event{
			{event.NewEngineCommand(event.CommandOnce, nil)},
		},
	}
	assistant := &fakeParticipant{}

	o := New(h, user, assistant)
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o.cycleIndex != 1 {
		t.Errorf("expected exactly one cycle to run, got %d", o.cycleIndex)
	}
}

func TestInterruptionResetsUncommittedAndContinues(t *testing.T) {
	h := history.New()
	h.Append(message.Plain(message.AuthorUser, "leftover", true))

	user := &fakeParticipant{inputErrs: []error{ErrInterruption, ErrEndOfInput}}
	assistant := &fakeParticipant{}

	o := New(h, user, assistant)

	err := o.Run(context.Background())
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("expected Run to continue past the interruption and end on ErrEndOfInput, got %v", err)
	}
	if o.cycleIndex != 2 {
		t.Errorf("expected a second cycle after the interruption, got %d cycles", o.cycleIndex)
	}

	if len(h.All()) != 0 {
		t.Errorf("expected uncommitted message to be discarded after interruption")
	}
}

func TestWaitForMCPReadyPromptsOnUnacknowledgedErrors(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{}
	assistant := &fakeParticipant{}

	mcp := &fakeMCP{hasErrors: true, report: "server x failed"}
	confirmCalls := 0
	o := New(h, user, assistant,
		WithMCP(mcp),
		WithConfirmer(func(prompt string) bool {
			confirmCalls++
			return true
		}),
	)

	if err := o.waitForMCPReady(context.Background()); err != nil {
		t.Fatalf("waitForMCPReady: %v", err)
	}
	if confirmCalls != 1 {
		t.Errorf("expected confirmer to be asked once, got %d calls", confirmCalls)
	}
	if !mcp.acknowledged {
		t.Errorf("expected errors to be acknowledged after confirmation")
	}
}

func TestWaitForMCPReadyEndsInputWhenUserDeclines(t *testing.T) {
	h := history.New()
	user := &fakeParticipant{}
	assistant := &fakeParticipant{}

	mcp := &fakeMCP{hasErrors: true, report: "server x failed"}
	o := New(h, user, assistant,
		WithMCP(mcp),
		WithConfirmer(func(string) bool { return false }),
	)

	err := o.waitForMCPReady(context.Background())
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("expected ErrEndOfInput, got %v", err)
	}
}

type fakeMCP struct {
	hasErrors    bool
	acknowledged bool
	report       string
}

func (f *fakeMCP) WaitForInitialLoad(ctx context.Context) error { return nil }
func (f *fakeMCP) StatusReport() string {
	if f.acknowledged {
		return ""
	}
	return f.report
}
func (f *fakeMCP) HasErrors() bool    { return f.hasErrors && !f.acknowledged }
func (f *fakeMCP) AcknowledgeErrors() { f.acknowledged = true }
