package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/hermes-go/internal/session"
)

// utilsFlags is accepted for consistency with spec §6 ("each mode accepts
// --model/--no-markdown/--verbose/--debug") even though none of utils'
// subcommands drive a provider or a renderer today — the flag set is
// mode-scoped in name only here, matching the Open Question (a) decision
// that a mode may accept a flag it has no current use for rather than
// carving out a bespoke flag set per subcommand.
var utilsFlags = &CommonFlags{
	Model:      new(string),
	NoMarkdown: new(bool),
	Verbose:    new(bool),
	Debug:      new(bool),
}

var utilsCmd = &cobra.Command{
	Use:   "utils",
	Short: "Small standalone utilities (session catalog, history housekeeping)",
}

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List indexed saved history snapshots",
	RunE:  runSessions,
}

func init() {
	AddCommonFlags(utilsCmd, utilsFlags)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 0, "Maximum entries to list (0 uses the catalog default)")
	utilsCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cat, err := session.Open("")
	if err != nil {
		return fmt.Errorf("open session catalog: %w", err)
	}
	defer cat.Close()

	entries, err := cat.List(context.Background(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no saved sessions indexed")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\t%d messages\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Path, e.Model, e.MessageCount, e.Summary)
	}
	return nil
}
