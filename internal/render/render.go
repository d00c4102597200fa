// Package render supplies concrete Renderer implementations for the
// terminal-rendering seam (spec §1 non-goal). GlamourRenderer wraps
// github.com/charmbracelet/glamour (itself built on goldmark), matching the
// teacher's width-cached glamour.TermRenderer pattern
// (internal/ui/markdown.go's getRenderer). PlainRenderer backs the
// --no-markdown CLI flag (spec §6).
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/samsaffron/hermes-go/internal/event"
)

// GlamourRenderer renders message content as ANSI-formatted markdown via
// glamour, caching one *glamour.TermRenderer per word-wrap width (building a
// renderer is comparatively expensive).
type GlamourRenderer struct {
	out   io.Writer
	width int

	mu    sync.Mutex
	cache map[int]*glamour.TermRenderer
}

// NewGlamourRenderer constructs a renderer writing to out, wrapping at
// width columns.
func NewGlamourRenderer(out io.Writer, width int) *GlamourRenderer {
	return &GlamourRenderer{out: out, width: width, cache: make(map[int]*glamour.TermRenderer)}
}

func (r *GlamourRenderer) termRenderer() (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.cache[r.width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return nil, fmt.Errorf("build markdown renderer: %w", err)
	}
	r.cache[r.width] = tr
	return tr, nil
}

// RenderMessage renders a MessageEvent's content_for_user through glamour.
// Non-message events (history recovery, notifications, engine commands)
// produce no output here — callers route those through RenderNotification
// or ignore them, matching spec §4.3's "engine commands are never
// forwarded" rule.
func (r *GlamourRenderer) RenderMessage(e event.Event) {
	if e.Kind != event.KindMessage {
		return
	}
	text := e.Message.ContentForUser()
	if text == "" {
		return
	}
	tr, err := r.termRenderer()
	if err != nil {
		fmt.Fprintln(r.out, text)
		return
	}
	out, err := tr.Render(text)
	if err != nil {
		fmt.Fprintln(r.out, text)
		return
	}
	fmt.Fprint(r.out, out)
}

// RenderNotification writes a plain, non-markdown status line.
func (r *GlamourRenderer) RenderNotification(text string) {
	fmt.Fprintln(r.out, text)
}

// PlainRenderer writes message text verbatim, no markdown processing — the
// --no-markdown / non-TTY path (spec §6).
type PlainRenderer struct {
	out io.Writer
}

// NewPlainRenderer constructs a renderer writing unformatted text to out.
func NewPlainRenderer(out io.Writer) *PlainRenderer {
	return &PlainRenderer{out: out}
}

func (r *PlainRenderer) RenderMessage(e event.Event) {
	if e.Kind != event.KindMessage {
		return
	}
	text := e.Message.ContentForUser()
	if text == "" {
		return
	}
	fmt.Fprintln(r.out, text)
}

func (r *PlainRenderer) RenderNotification(text string) {
	fmt.Fprintln(r.out, text)
}
