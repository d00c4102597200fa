package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samsaffron/hermes-go/internal/llmconfig"
)

var infoFlags = &CommonFlags{
	Model:      new(string),
	NoMarkdown: new(bool),
	Verbose:    new(bool),
	Debug:      new(bool),
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the effective configuration",
	RunE:  runInfo,
}

func init() {
	AddCommonFlags(infoCmd, infoFlags)
}

func runInfo(cmd *cobra.Command, args []string) error {
	dir, err := llmconfig.GetConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	cfg, err := llmconfig.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
		fmt.Printf("# no config directory yet (using defaults)\n# would be created at: %s\n\n", dir)
	} else {
		fmt.Printf("# %s\n\n", dir)
	}

	fmt.Printf("default_model: %s\n", cfg.DefaultModel)
	fmt.Printf("providers:\n")
	for name := range cfg.Providers {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("mcp.chat_servers:\n")
	for name := range cfg.MCP.ChatServers {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("mcp.deep_research_servers:\n")
	for name := range cfg.MCP.DeepResearchServers {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
