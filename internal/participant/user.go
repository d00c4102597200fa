package participant

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samsaffron/hermes-go/internal/command"
	"github.com/samsaffron/hermes-go/internal/event"
	"github.com/samsaffron/hermes-go/internal/message"
	"github.com/samsaffron/hermes-go/internal/parser"
)

// ErrEndOfInput is returned by GetInputAndRunCommands when the input reader
// is exhausted (Ctrl-D / EOF on stdin). Kept as the same value
// event.ErrEndOfInput resolves to, so internal/orchestrator's errors.Is
// checks see through this layer without a translation step.
var ErrEndOfInput = event.ErrEndOfInput

// User is the keyboard/terminal Participant (spec §4.5): reads stdin
// line-by-line, runs what it read through the same block-form command
// parser the assistant uses, and renders whatever events it receives back
// through a Renderer.
//
// Grounded on the teacher's stdin-reading idiom
// (internal/tools/prompt.go / cmd/skills.go's bufio.NewReader(os.Stdin) +
// reader.ReadString('\n')). A line is read as ordinary chat text unless its
// stripped content opens a block ("<<< name"), in which case subsequent
// lines are read and accumulated until the closing ">>>" or EOF, so a human
// can still issue the same builtin commands (exit, save_history, ...) the
// assistant issues, typed directly at the prompt.
type User struct {
	in       *bufio.Reader
	out      io.Writer
	renderer Renderer
	registry *command.Registry
	parser   *parser.Parser

	prompt string
}

// NewUser constructs a User participant reading from in, writing its prompt
// to out, rendering through renderer, and dispatching embedded commands via
// registry.
func NewUser(in io.Reader, out io.Writer, renderer Renderer, registry *command.Registry) *User {
	return &User{
		in:       bufio.NewReader(in),
		out:      out,
		renderer: renderer,
		registry: registry,
		parser:   parser.New(registry),
		prompt:   "> ",
	}
}

// Prepare is a no-op for the user side; there is no warm-up state to build.
func (u *User) Prepare(ctx context.Context) error {
	return nil
}

// Clear is a no-op: User keeps no state beyond its input reader and
// prompt string, neither of which is conversation-derived.
func (u *User) Clear() {}

// ConsumeEventsAndRender renders every inbound message/notification event
// to the terminal. Engine commands never reach here (the orchestrator
// strips them before forwarding, spec §4.3); history-recovery events carry
// no renderable content of their own.
func (u *User) ConsumeEventsAndRender(ctx context.Context, events []event.Event) error {
	for _, e := range events {
		switch e.Kind {
		case event.KindMessage:
			u.renderer.RenderMessage(e)
		case event.KindNotification:
			u.renderer.RenderNotification(e.Notification)
		}
	}
	return nil
}

// GetInputAndRunCommands reads one line from the input reader. A line
// opening a block ("<<< name") pulls in further lines up to the closing
// ">>>" before parsing; any other line is parsed as-is (matching nothing,
// since it can't open a block) and recorded as a directly-entered
// plain-text message (spec glossary: "directly entered").
func (u *User) GetInputAndRunCommands(ctx context.Context) ([]event.Event, error) {
	fmt.Fprint(u.out, u.prompt)
	text, err := u.readInput()
	if err != nil {
		return nil, err
	}

	results := u.parser.Parse(text)
	if len(results) == 0 {
		return []event.Event{event.NewMessage(message.Plain(message.AuthorUser, text, true))}, nil
	}

	var out []event.Event
	if report := parser.ErrorReport(results); report != "" {
		u.renderer.RenderNotification(report)
	}
	for _, r := range results {
		if !r.Valid() {
			continue
		}
		cmd, ok := u.registry.Get(r.CommandName)
		if !ok {
			continue
		}
		result, err := cmd.Execute(nil, r.Args)
		if err != nil {
			u.renderer.RenderNotification(fmt.Sprintf("command %s failed: %s", r.CommandName, err))
			continue
		}
		switch v := result.(type) {
		case []event.Event:
			out = append(out, v...)
		case string:
			out = append(out, event.NewMessage(message.CommandOutput(r.CommandName, v)))
		}
	}
	return out, nil
}

// readInput reads one logical unit of input: a single line, or — when the
// first line opens a block — every line up to and including the closing
// ">>>" (or EOF, left for the parser's own unterminated-block diagnostic).
func (u *User) readInput() (string, error) {
	first, err := u.in.ReadString('\n')
	if err != nil && first == "" {
		if errors.Is(err, io.EOF) {
			return "", ErrEndOfInput
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	first = strings.TrimRight(first, "\n")

	trimmed := strings.TrimSpace(first)
	if !strings.HasPrefix(trimmed, "<<<") || strings.TrimSpace(strings.TrimPrefix(trimmed, "<<<")) == "" {
		return first, nil
	}

	var b strings.Builder
	b.WriteString(first)
	for {
		line, err := u.in.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		trimmedLine := strings.TrimRight(line, "\n")
		b.WriteString("\n")
		b.WriteString(trimmedLine)
		if strings.TrimSpace(trimmedLine) == ">>>" {
			break
		}
		if err != nil {
			break
		}
	}
	return b.String(), nil
}
