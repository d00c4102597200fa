// Package providerstub supplies a placeholder providerapi.Provider so
// cmd/hermes has something to run against out of the box. A real provider
// (Anthropic/OpenAI/etc request builders) is an explicit non-goal (spec
// §1); this is not one of those — it implements no vendor wire protocol,
// it only exercises the streaming contract so the conversation cycle has a
// provider to drive without requiring API credentials.
//
// Grounded on internal/llm/debug_provider.go's DebugProvider: a
// chunk-and-delay text streamer built for exercising the TUI without a
// network call, narrowed here to a straight echo of the caller's last
// message instead of canned markdown.
package providerstub

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samsaffron/hermes-go/internal/providerapi"
)

// Echo streams back "echo: <last user message>" in fixed-size chunks, with
// an optional delay between chunks to exercise incremental rendering.
type Echo struct {
	ChunkSize int
	Delay     time.Duration
}

// New constructs an Echo provider with the teacher debug provider's
// "normal" preset (20-byte chunks, 20ms delay).
func New() *Echo {
	return &Echo{ChunkSize: 20, Delay: 20 * time.Millisecond}
}

func (e *Echo) Name() string { return "echo" }

func (e *Echo) Capabilities() providerapi.Capabilities {
	return providerapi.Capabilities{}
}

func (e *Echo) Stream(ctx context.Context, req providerapi.Request) (providerapi.Stream, error) {
	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 20
	}
	text := fmt.Sprintf("echo: %s", lastUserText(req.Messages))

	ch := make(chan providerapi.Event)
	go func() {
		defer close(ch)
		for len(text) > 0 {
			end := chunkSize
			if end > len(text) {
				end = len(text)
			}
			chunk := text[:end]
			text = text[end:]
			select {
			case <-ctx.Done():
				return
			case ch <- providerapi.Event{Type: providerapi.EventTextDelta, Text: chunk}:
			}
			if e.Delay > 0 && len(text) > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(e.Delay):
				}
			}
		}
		select {
		case <-ctx.Done():
		case ch <- providerapi.Event{Type: providerapi.EventDone}:
		}
	}()

	return &channelStream{ch: ch}, nil
}

func lastUserText(messages []providerapi.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != providerapi.RoleUser {
			continue
		}
		for _, part := range messages[i].Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return "(no input)"
}

// channelStream adapts a receive-only Event channel to providerapi.Stream.
type channelStream struct {
	ch <-chan providerapi.Event
}

func (s *channelStream) Recv() (providerapi.Event, error) {
	ev, ok := <-s.ch
	if !ok {
		return providerapi.Event{}, io.EOF
	}
	return ev, nil
}

func (s *channelStream) Close() error { return nil }
