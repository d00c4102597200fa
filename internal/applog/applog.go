// Package applog wires up the structured logging this core emits from
// internal/orchestrator: cycle boundaries, notifications (the MCP status
// report, failed engine commands), and crash-save. The teacher logs directly
// against slog's default logger with no custom handler setup; this package
// adds only the one thing a CLI needs beyond that default: routing log
// output to stderr (so it never interleaves with assistant/user-facing
// stdout) and letting --verbose/--debug (spec §6) raise the level.
package applog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level names accepted by New. LevelForFlags maps --verbose to LevelInfo
// and --debug to LevelDebug; with neither flag the level is LevelWarn.
const (
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// New builds a text-handler slog.Logger writing to w (os.Stderr in
// production, a bytes.Buffer in tests). An empty level defaults to "warn",
// the teacher's own effective default (it only ever logs via slog.Warn).
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// parseLevel maps a CLI-facing level name to its slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn, "":
		return slog.LevelWarn
	default:
		return slog.LevelWarn
	}
}

// LevelForFlags resolves the effective log level from the CLI's --verbose
// and --debug flags (spec §6): --debug selects Debug level, --verbose
// selects Info, neither keeps the teacher's quiet Warn-only default.
func LevelForFlags(verbose, debug bool) string {
	switch {
	case debug:
		return LevelDebug
	case verbose:
		return LevelInfo
	default:
		return LevelWarn
	}
}
