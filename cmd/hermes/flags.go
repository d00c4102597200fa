package main

import (
	"github.com/spf13/cobra"
)

// CommonFlags holds pointers to the flag variables every subcommand shares,
// mirroring the teacher's cmd/flags.go CommonFlags shape: one struct of
// pointers populated per-command, each command owning its own variables.
type CommonFlags struct {
	Model      *string
	NoMarkdown *bool
	Verbose    *bool
	Debug      *bool
	STT        *bool
}

// AddModelFlag adds the --model/-m flag, overriding the configured default
// model (spec §6: "default_model" config key, CLI override on every
// subcommand).
func AddModelFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "model", "m", "", "Override the configured model, optionally with provider (e.g. anthropic:claude-sonnet-4-6)")
}

// AddNoMarkdownFlag adds the --no-markdown flag, selecting the plain
// renderer over the glamour-backed one (internal/render).
func AddNoMarkdownFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVar(dest, "no-markdown", false, "Render assistant output as plain text instead of formatted markdown")
}

// AddVerboseFlag adds the --verbose flag, raising the slog level to Info
// (internal/applog.LevelForFlags).
func AddVerboseFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVar(dest, "verbose", false, "Log at Info level")
}

// AddDebugFlag adds the --debug/-d flag, raising the slog level to Debug.
func AddDebugFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVarP(dest, "debug", "d", false, "Log at Debug level")
}

// AddSTTFlag adds the --stt flag. Speech-to-text input is a stub: the flag
// is accepted and threaded through so a future input source can honour it,
// but no audio capture is implemented here (spec's external-collaborator
// seams are limited to rendering and the LLM provider; STT never got a
// seam of its own in spec.md, so this is recorded as a known gap rather
// than invented scope).
func AddSTTFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVar(dest, "stt", false, "Accept spoken input instead of typed input (not yet implemented)")
}

// AddCommonFlags registers every flag in CommonFlags against cmd.
func AddCommonFlags(cmd *cobra.Command, f *CommonFlags) {
	AddModelFlag(cmd, f.Model)
	AddNoMarkdownFlag(cmd, f.NoMarkdown)
	AddVerboseFlag(cmd, f.Verbose)
	AddDebugFlag(cmd, f.Debug)
	if f.STT != nil {
		AddSTTFlag(cmd, f.STT)
	}
}
