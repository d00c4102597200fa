package providerstub

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/hermes-go/internal/providerapi"
)

func drain(t *testing.T, s providerapi.Stream) string {
	t.Helper()
	var text strings.Builder
	for {
		ev, err := s.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if ev.Type == providerapi.EventTextDelta {
			text.WriteString(ev.Text)
		}
		if ev.Type == providerapi.EventDone {
			break
		}
	}
	return text.String()
}

func TestEchoStreamsLastUserMessage(t *testing.T) {
	e := &Echo{ChunkSize: 4, Delay: 0}
	req := providerapi.Request{
		Messages: []providerapi.Message{
			{Role: providerapi.RoleSystem, Parts: []providerapi.Part{{Type: "text", Text: "be terse"}}},
			{Role: providerapi.RoleUser, Parts: []providerapi.Part{{Type: "text", Text: "hello there"}}},
		},
	}

	stream, err := e.Stream(context.Background(), req)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	got := drain(t, stream)
	if got != "echo: hello there" {
		t.Errorf("expected %q, got %q", "echo: hello there", got)
	}
}

func TestEchoWithNoUserMessageEchoesPlaceholder(t *testing.T) {
	e := New()
	stream, err := e.Stream(context.Background(), providerapi.Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if got := drain(t, stream); got != "echo: (no input)" {
		t.Errorf("expected placeholder echo, got %q", got)
	}
}

func TestEchoStreamRespectsContextCancellation(t *testing.T) {
	e := &Echo{ChunkSize: 1, Delay: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	req := providerapi.Request{Messages: []providerapi.Message{
		{Role: providerapi.RoleUser, Parts: []providerapi.Part{{Type: "text", Text: "abcdefghij"}}},
	}}

	stream, err := e.Stream(ctx, req)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("expected at least one chunk before cancellation, got err: %v", err)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		_, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("stream did not close after context cancellation")
		default:
		}
	}
}
