package session

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRecordAndList(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Record(ctx, Entry{Path: "/tmp/history-1.json", Model: "test-model", MessageCount: 4}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Record(ctx, Entry{Path: "/tmp/history-2.json", Model: "test-model", MessageCount: 2}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestRecordUpsertsOnSamePath(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Record(ctx, Entry{Path: "/tmp/history-1.json", MessageCount: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Record(ctx, Entry{Path: "/tmp/history-1.json", MessageCount: 9}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the second write to replace the first, got %d entries", len(entries))
	}
	if entries[0].MessageCount != 9 {
		t.Errorf("expected updated message count 9, got %d", entries[0].MessageCount)
	}
}

func TestRemoveDeletesEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Record(ctx, Entry{Path: "/tmp/history-1.json"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := c.Remove(ctx, "/tmp/history-1.json"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	entries, err := c.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries after removal, got %d", len(entries))
	}
}
