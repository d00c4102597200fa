package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hermes",
	Short: "A terminal LLM assistant",
	Long: `hermes is an interactive terminal LLM assistant.

Examples:
  hermes chat
  hermes simple-agent
  hermes info`,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(simpleAgentCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(utilsCmd)
	rootCmd.AddCommand(infoCmd)
}

// Execute runs the root command, exiting with status 1 on error, matching
// the teacher's Execute().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
