package message

import (
	"encoding/json"
	"fmt"
	"time"
)

func timestampFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// wireMessage is the on-disk JSON shape for a Message (spec §4.4). Streamed
// variants persist their accumulated text plus a has_finished flag rather
// than the live generator.
type wireMessage struct {
	Type              string   `json:"type"`
	Author            Author   `json:"author"`
	Timestamp         int64    `json:"timestamp"` // unix millis
	IsDirectlyEntered bool     `json:"is_directly_entered,omitempty"`
	Text              string   `json:"text,omitempty"`
	Thinking          string   `json:"thinking,omitempty"`
	HasFinished       bool     `json:"has_finished,omitempty"`
	Path              string   `json:"path,omitempty"`
	URL               string   `json:"url,omitempty"`
	Content           string   `json:"content,omitempty"`
	Pages             PDFPages `json:"pages,omitempty"`
	CommandName       string   `json:"command_name,omitempty"`
}

// MarshalJSON serialises a Message per spec §4.4: tag + fields, with
// streamed/thinking variants writing their accumulated buffer.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Type:              string(m.Kind),
		Author:            m.Author,
		Timestamp:         m.Timestamp.UnixMilli(),
		IsDirectlyEntered: m.IsDirectlyEntered,
		Text:              m.Text,
		Thinking:          m.Thinking,
		Path:              m.Path,
		URL:               m.URL,
		Content:           m.Content,
		Pages:             m.Pages,
		CommandName:       m.CommandName,
	}
	switch m.Kind {
	case KindStreamedText, KindThinkingResponse:
		if m.stream != nil {
			w.Text = m.stream.ConsumeOnce()
			w.HasFinished = m.stream.HasFinished()
		} else {
			w.HasFinished = true
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON deserialises a Message, reconstructing already-finished
// streams for streamed/thinking variants (spec §4.4).
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	kind := Kind(w.Type)
	if !validKind(kind) {
		return fmt.Errorf("unknown message type: %q", w.Type)
	}
	*m = Message{
		Kind:              kind,
		Author:            w.Author,
		Timestamp:         timestampFromMillis(w.Timestamp),
		IsDirectlyEntered: w.IsDirectlyEntered,
		Text:              w.Text,
		Thinking:          w.Thinking,
		Path:              w.Path,
		URL:               w.URL,
		Content:           w.Content,
		Pages:             w.Pages,
		CommandName:       w.CommandName,
	}
	switch kind {
	case KindStreamedText, KindThinkingResponse:
		m.stream = finishedStreamedText(w.Text)
		m.Text = ""
	}
	return nil
}

func validKind(k Kind) bool {
	switch k {
	case KindPlainText, KindInvisibleText, KindAssistantNotice, KindStreamedText,
		KindThinkingResponse, KindImage, KindAudio, KindVideo, KindPDF,
		KindTextualFile, KindURL, KindCommandOutput:
		return true
	default:
		return false
	}
}
