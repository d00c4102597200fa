package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var researchFlags = &CommonFlags{
	Model:      new(string),
	NoMarkdown: new(bool),
	Verbose:    new(bool),
	Debug:      new(bool),
}

var researchCmd = &cobra.Command{
	Use:   "research research_repo[:name]",
	Short: "Run the Deep Research recursive problem-tree engine (not implemented)",
	Long: `research names the CLI surface for the Deep Research orchestrator: an
additional assistant orchestrator, beyond the one this module implements,
that recursively decomposes a problem across a separate MCP client set. It
is an explicit non-goal of this module (spec §1): only the routing this
core does share with it (the deep_research_servers MCP set,
DeepResearchBudget's forwarding seam) is implemented. This command exists
so the flag surface and positional argument spec §6 describes have a home,
and fails clearly rather than silently doing nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	AddCommonFlags(researchCmd, researchFlags)
}

func runResearch(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("research %s: the Deep Research orchestrator is not implemented by this module (spec non-goal)", args[0])
}
