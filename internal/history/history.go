// Package history implements the History Store (spec §4.4): an append-only
// log with two-phase commit (uncommitted vs committed), per-author filtered
// views, and JSON snapshot save/load. Generalised from the teacher's session
// persistence shape (internal/session/types.go's Message/ToLLMMessage,
// internal/session/store.go's Store interface) to the two-phase in-memory
// model spec.md requires; on-disk format follows spec §4.4 exactly rather
// than the teacher's session-row schema.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samsaffron/hermes-go/internal/message"
)

// Item wraps a single stored message (spec §3: "History item. { message }").
type Item struct {
	Message message.Message
}

// History holds the two-phase log. Owned exclusively by the orchestrator
// (spec §5: "only the orchestrator mutates it"); not safe for concurrent
// mutation from multiple goroutines.
type History struct {
	uncommitted []Item
	committed   []Item
}

// New constructs an empty History.
func New() *History {
	return &History{}
}

// Append adds a message to the uncommitted queue for the current cycle.
func (h *History) Append(m message.Message) {
	h.uncommitted = append(h.uncommitted, Item{Message: m})
}

// Commit moves uncommitted items to committed, then clears uncommitted.
func (h *History) Commit() {
	h.committed = append(h.committed, h.uncommitted...)
	h.uncommitted = nil
}

// ResetUncommitted discards the uncommitted queue (called on interruption),
// reporting whether anything was discarded.
func (h *History) ResetUncommitted() bool {
	discarded := len(h.uncommitted) > 0
	h.uncommitted = nil
	return discarded
}

// Clear empties both queues (ClearHistory engine command effect).
func (h *History) Clear() {
	h.uncommitted = nil
	h.committed = nil
}

// All returns every item across both queues, committed first, in the order
// recorded.
func (h *History) All() []Item {
	out := make([]Item, 0, len(h.committed)+len(h.uncommitted))
	out = append(out, h.committed...)
	out = append(out, h.uncommitted...)
	return out
}

// GetHistoryFor returns all messages except those authored by author with
// IsDirectlyEntered set — an author's own typed-in text is excluded from
// their own view (spec §3).
func (h *History) GetHistoryFor(author message.Author) []message.Message {
	items := h.All()
	out := make([]message.Message, 0, len(items))
	for _, it := range items {
		if it.Message.Author == author && it.Message.IsDirectlyEntered {
			continue
		}
		out = append(out, it.Message)
	}
	return out
}

// wireSnapshot is the on-disk shape, matching spec §4.4's save format
// exactly: {"messages": [{"message": <message>}, ...]}.
type wireSnapshot struct {
	Messages []wireItem `json:"messages"`
}

type wireItem struct {
	Message message.Message `json:"message"`
}

// Save writes the full (committed ∪ uncommitted) history to path as JSON.
// If path is empty, a timestamped default filename in the current directory
// is used (DefaultSnapshotPath("")).
func (h *History) Save(path string) (string, error) {
	if path == "" {
		path = DefaultSnapshotPath("")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create history directory: %w", err)
	}

	items := h.All()
	snap := wireSnapshot{Messages: make([]wireItem, len(items))}
	for i, it := range items {
		snap.Messages[i] = wireItem{Message: it.Message}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename history: %w", err)
	}
	return path, nil
}

// Load replaces the committed queue with the snapshot at path and clears
// uncommitted. Unknown message types cause the load to fail fast (spec §6:
// "unknown message types cause load to fail fast with a named-type error"),
// surfaced here as message.UnmarshalJSON's own error, wrapped.
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	var snap wireSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse history %s: %w", path, err)
	}

	committed := make([]Item, len(snap.Messages))
	for i, wi := range snap.Messages {
		committed[i] = Item{Message: wi.Message}
	}
	h.committed = committed
	h.uncommitted = nil
	return nil
}

// DefaultSnapshotPath builds a timestamped default filename under dir (or
// the current directory if dir is empty), matching spec §4.4's
// "SaveHistory(path or timestamped default)".
func DefaultSnapshotPath(dir string) string {
	name := fmt.Sprintf("history-%s.json", time.Now().Format("20060102-150405"))
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
