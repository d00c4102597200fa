// Package message implements the polymorphic Message variant set (spec §3).
// Source's deep class hierarchy is flattened into a single tagged struct with
// a dispatch table per kind, following the teacher's small-interface style
// (internal/llm/types.go's Message/Part) generalized to the kinds spec.md
// requires (streamed text, thinking, images, audio, video, PDF, files, URLs,
// command output) instead of just text/tool-call/tool-result.
package message

import "time"

// Author identifies who produced a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
	AuthorSystem    Author = "system"
)

// Kind enumerates the Message variant set from spec §3.
type Kind string

const (
	KindPlainText          Kind = "plain_text"
	KindInvisibleText      Kind = "invisible_text"
	KindAssistantNotice    Kind = "assistant_notification"
	KindStreamedText       Kind = "streamed_text"
	KindThinkingResponse   Kind = "thinking_response"
	KindImage              Kind = "image"
	KindAudio               Kind = "audio"
	KindVideo               Kind = "video"
	KindPDF                 Kind = "pdf"
	KindTextualFile         Kind = "textual_file"
	KindURL                 Kind = "url"
	KindCommandOutput       Kind = "command_output"
)

// PDFPages optionally restricts an embedded PDF to specific pages.
type PDFPages []int

// Message is the tagged variant. Only fields relevant to Kind are populated;
// callers dispatch on Kind, not on Go's type system, matching spec.md's
// description of Message as a closed sum type with two accessors.
type Message struct {
	Kind      Kind
	Author    Author
	Timestamp time.Time

	// IsDirectlyEntered marks text typed in by Author themselves (spec
	// glossary: "directly entered"). Used by History.GetHistoryFor to hide an
	// author's own input from their own view.
	IsDirectlyEntered bool

	// Text-ish variants (plain, invisible, assistant notification, command
	// output). The URL variant uses the URL field instead.
	Text string

	// Streamed/thinking variants.
	stream *streamedText

	// Thinking content, populated for KindThinkingResponse alongside Text
	// (the response) once the stream has finished.
	Thinking string

	// Media/file variants.
	Path    string // local path, for image/audio/video/pdf/textual_file
	URL     string // remote URL, for image/url
	Content string // inline content, for textual_file when no Path is set
	Pages   PDFPages

	// Command output variant: text captured from an LLM-run command.
	CommandName string
}

// streamedText models spec §9's "finite lazy sequence with a once-consumed
// flag and an accumulated text buffer" re-modeling of the source's Python
// generators.
type streamedText struct {
	next       func() (string, bool) // returns next chunk, ok=false when exhausted
	accumulated string
	finished   bool
	started    bool
}

// NewStreamedText wraps a chunk-producing function as a KindStreamedText
// message. next should return ("", false) once the stream is exhausted.
func NewStreamedText(author Author, next func() (string, bool)) Message {
	return Message{
		Kind:      KindStreamedText,
		Author:    author,
		Timestamp: time.Now(),
		stream:    &streamedText{next: next},
	}
}

// NewThinkingResponse wraps a chunk-producing function whose accumulated text
// is the final response; thinking is captured separately and is already
// final (the model emits it before the response in this spec's model).
func NewThinkingResponse(author Author, thinking string, next func() (string, bool)) Message {
	return Message{
		Kind:      KindThinkingResponse,
		Author:    author,
		Timestamp: time.Now(),
		Thinking:  thinking,
		stream:    &streamedText{next: next},
	}
}

// finishedStreamedText builds an already-finished stream wrapper, used when
// deserializing a persisted message (spec §4.4: "deserialisation yields an
// already-finished stream").
func finishedStreamedText(accumulated string) *streamedText {
	return &streamedText{accumulated: accumulated, finished: true, started: true}
}

// ConsumeOnce drains the stream once, returning the full accumulated text.
// Subsequent calls return the same accumulated text without re-iterating.
// This backs ContentForUser's "may be iterated once live" rule.
func (s *streamedText) ConsumeOnce() string {
	if s.finished {
		return s.accumulated
	}
	s.started = true
	for {
		chunk, ok := s.next()
		if !ok {
			break
		}
		s.accumulated += chunk
	}
	s.finished = true
	return s.accumulated
}

// HasFinished reports whether the stream has been fully consumed.
func (s *streamedText) HasFinished() bool {
	return s.finished
}

// Plain constructs a plain-text message visible to both sides.
func Plain(author Author, text string, directlyEntered bool) Message {
	return Message{Kind: KindPlainText, Author: author, Text: text, Timestamp: time.Now(), IsDirectlyEntered: directlyEntered}
}

// Invisible constructs a message visible only to the assistant, not rendered
// to the user (used for agent-mode continuation reminders, spec §4.8).
func Invisible(author Author, text string) Message {
	return Message{Kind: KindInvisibleText, Author: author, Text: text, Timestamp: time.Now()}
}

// AssistantNotification constructs a message visible only to the assistant
// (e.g. tool/command error reports routed back for self-correction, spec §7).
func AssistantNotification(text string) Message {
	return Message{Kind: KindAssistantNotice, Author: AuthorSystem, Text: text, Timestamp: time.Now()}
}

// CommandOutput constructs a message carrying the textual output of an
// LLM-run command (spec §3's "LLM-run command output" variant).
func CommandOutput(commandName, output string) Message {
	return Message{Kind: KindCommandOutput, Author: AuthorSystem, CommandName: commandName, Text: output, Timestamp: time.Now()}
}

// ContentForUser returns what should be rendered to the human user. Invisible
// and assistant-notification variants render as empty (nothing to show).
func (m Message) ContentForUser() string {
	switch m.Kind {
	case KindInvisibleText, KindAssistantNotice:
		return ""
	case KindStreamedText, KindThinkingResponse:
		if m.stream != nil {
			return m.stream.ConsumeOnce()
		}
		return ""
	case KindImage, KindAudio, KindVideo, KindPDF:
		return mediaLabel(m)
	case KindTextualFile:
		if m.Content != "" {
			return m.Content
		}
		return "[file: " + m.Path + "]"
	case KindURL:
		return m.URL
	case KindCommandOutput:
		return m.Text
	default:
		return m.Text
	}
}

// ContentForAssistant returns what should be fed to the model. Assistant
// notifications and command output are visible here even though hidden from
// the user; the author's own directly-entered input is still fed back to the
// model (only GetHistoryFor filters that, and only for the author's own view).
func (m Message) ContentForAssistant() string {
	switch m.Kind {
	case KindStreamedText:
		if m.stream != nil {
			return m.stream.ConsumeOnce()
		}
		return ""
	case KindThinkingResponse:
		text := ""
		if m.stream != nil {
			text = m.stream.ConsumeOnce()
		}
		if m.Thinking != "" {
			return "<thinking>" + m.Thinking + "</thinking>\n" + text
		}
		return text
	case KindImage, KindAudio, KindVideo, KindPDF:
		return mediaLabel(m)
	case KindTextualFile:
		if m.Content != "" {
			return m.Content
		}
		return "[file: " + m.Path + "]"
	case KindURL:
		return m.URL
	default:
		return m.Text
	}
}

func mediaLabel(m Message) string {
	loc := m.Path
	if loc == "" {
		loc = m.URL
	}
	label := "[" + string(m.Kind) + ": " + loc + "]"
	if m.Kind == KindPDF && len(m.Pages) > 0 {
		label += " (pages restricted)"
	}
	return label
}

// HasFinished reports whether a streamed/thinking message's stream has been
// fully drained. Non-streaming variants always report true.
func (m Message) HasFinished() bool {
	if m.stream == nil {
		return true
	}
	return m.stream.HasFinished()
}
