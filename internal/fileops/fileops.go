// Package fileops implements the File-Operations Handler (spec §4.9): the
// effectful target for FileEdit engine commands. Atomic writes follow the
// teacher's write-to-temp-then-rename pattern (internal/tools/write.go);
// markdown section location uses goldmark's AST instead of regex so that a
// "#" inside a fenced code block never gets mistaken for a heading.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samsaffron/hermes-go/internal/event"
)

// Confirmer asks the interactive user a yes/no question (spec §4.9's
// "prompt user y/N for overwrite"). internal/orchestrator defines the same
// shape independently; both are satisfied by the same CLI prompt function.
type Confirmer func(prompt string) bool

// Handler implements internal/orchestrator.FileEditor.
type Handler struct {
	backupDir string
	confirm   Confirmer
}

// New constructs a Handler. backupDir is the conventional directory
// timestamped backups are written under (spec §4.9); an empty string uses
// the OS temp directory joined with "hermes-backups".
func New(backupDir string, confirm Confirmer) *Handler {
	if backupDir == "" {
		backupDir = filepath.Join(os.TempDir(), "hermes-backups")
	}
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	return &Handler{backupDir: backupDir, confirm: confirm}
}

// RunEdit dispatches on req.Mode (spec §4.9's four operations).
func (h *Handler) RunEdit(req event.FileEditRequest) error {
	switch req.Mode {
	case "create":
		return h.create(req.Path, req.Content)
	case "append":
		return h.appendOrPrepend(req.Path, req.Content, true)
	case "prepend":
		return h.appendOrPrepend(req.Path, req.Content, false)
	case "update_markdown_section":
		return h.updateMarkdownSection(req.Path, req.SectionPath, req.Content, req.Submode)
	default:
		return fmt.Errorf("fileops: unknown mode %q", req.Mode)
	}
}

// create writes content to path, backing up and confirming overwrite of an
// existing file first (spec §4.9).
func (h *Handler) create(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		if !h.confirm(fmt.Sprintf("%s already exists. Overwrite?", path)) {
			return fmt.Errorf("fileops: overwrite of %s declined", path)
		}
		if err := h.backup(path); err != nil {
			return fmt.Errorf("fileops: backup before overwrite: %w", err)
		}
	}
	return atomicWrite(path, content)
}

// appendOrPrepend ensures parent directories exist, creates the file if
// missing, and otherwise concatenates content at the requested end
// (spec §4.9: "for prepend, read-modify-write").
func (h *Handler) appendOrPrepend(path, content string, atEnd bool) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("fileops: read %s: %w", path, err)
		}
		return atomicWrite(path, content)
	}

	var combined string
	if atEnd {
		combined = string(existing) + content
	} else {
		combined = content + string(existing)
	}
	return atomicWrite(path, combined)
}

// backup copies path to a timestamped file under h.backupDir.
func (h *Handler) backup(path string) error {
	if err := os.MkdirAll(h.backupDir, 0o755); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format("20060102-150405"))
	return os.WriteFile(filepath.Join(h.backupDir, name), data, 0o644)
}

// atomicWrite ensures the parent directory exists, then writes content via
// a temp-file-then-rename (internal/tools/write.go's pattern).
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fileops: create directory %s: %w", dir, err)
	}
	temp := path + ".tmp"
	if err := os.WriteFile(temp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("fileops: write temp file: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("fileops: rename temp file: %w", err)
	}
	return nil
}

// updateMarkdownSection locates sectionPath (e.g. "Chapter 1 > 1.1") in the
// markdown file at path and updates or appends to it (spec §4.9). If the
// section cannot be found, the file is left untouched and an error is
// returned for the caller to surface as a warning.
func (h *Handler) updateMarkdownSection(path, sectionPath, content, submode string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fileops: read %s: %w", path, err)
	}

	titles, preface := splitSectionPath(sectionPath)
	headings := parseHeadings(source)

	target, ok := locateSection(headings, titles)
	if !ok {
		return fmt.Errorf("fileops: section %q not found in %s", sectionPath, path)
	}

	bodyStart, bodyEnd := target.bodyRange(len(source), preface)
	before := string(source[:bodyStart])
	body := string(source[bodyStart:bodyEnd])
	after := string(source[bodyEnd:])

	var newBody string
	switch submode {
	case "append":
		newBody = strings.TrimRight(body, "\n") + "\n\n" + strings.TrimSpace(content) + "\n"
	default: // "update"
		newBody = "\n" + strings.TrimSpace(content) + "\n\n"
	}

	return atomicWrite(path, before+newBody+after)
}

// splitSectionPath splits "Chapter 1 > 1.1 > __preface" into its header
// titles and whether the trailing __preface sentinel was present.
func splitSectionPath(sectionPath string) (titles []string, preface bool) {
	parts := strings.Split(sectionPath, ">")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 0 && parts[len(parts)-1] == "__preface" {
		preface = true
		parts = parts[:len(parts)-1]
	}
	return parts, preface
}
