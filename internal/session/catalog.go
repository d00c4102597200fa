// Package session supplements the JSON history snapshot format (spec §4.4)
// with an ambient sqlite catalog: an index of saved snapshot paths, so the
// "hermes utils sessions" command can page through them without
// reading every JSON file off disk. The snapshot files themselves remain
// the source of truth; this package only indexes their location.
//
// Grounded on internal/session/sqlite.go's SQLiteStore: schema-as-a-const,
// busy-retry wrapper, and WAL pragma tuning, narrowed from that file's full
// sessions+messages+FTS schema down to the one catalog table spec.md's
// scope actually calls for.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	model TEXT,
	summary TEXT,
	message_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);
`

// Entry is one indexed history snapshot.
type Entry struct {
	ID           int64
	Path         string
	Model        string
	Summary      string
	MessageCount int
	CreatedAt    time.Time
}

// Catalog indexes saved history snapshots in a local sqlite database.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database at path. An empty
// path resolves to a conventional location under the user's config
// directory, mirroring the teacher's per-user data file convention.
func Open(path string) (*Catalog, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		path = filepath.Join(dir, "hermes", "sessions.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session: create data directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record indexes a saved snapshot, replacing any prior entry for the same
// path (a session saved twice to the same default-naming path overwrites
// its own row rather than accumulating stale duplicates).
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, `
			INSERT INTO snapshots (path, model, summary, message_count, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				model = excluded.model,
				summary = excluded.summary,
				message_count = excluded.message_count,
				created_at = excluded.created_at`,
			e.Path, e.Model, e.Summary, e.MessageCount, e.CreatedAt)
		return err
	})
}

// List returns indexed snapshots newest-first, capped at limit (0 means the
// package default of 50, matching the teacher's own default page size).
func (c *Catalog) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, path, model, summary, message_count, created_at
		FROM snapshots
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("session: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var model, summary sql.NullString
		if err := rows.Scan(&e.ID, &e.Path, &model, &summary, &e.MessageCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: scan snapshot: %w", err)
		}
		e.Model = model.String
		e.Summary = summary.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes the catalog entry for path, e.g. after the snapshot file
// itself was deleted out of band.
func (c *Catalog) Remove(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM snapshots WHERE path = ?", path)
	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "database is locked")
}

// retryOnBusy retries op with a short exponential backoff on SQLITE_BUSY,
// matching the teacher's own resilience layer on top of the busy_timeout
// pragma.
func retryOnBusy(ctx context.Context, op func() error) error {
	var err error
	for i := 0; i < 5; i++ {
		err = op()
		if err == nil || !isBusyError(err) {
			return err
		}
		d := time.Duration(10*(1<<i)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return err
}
