package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/hermes-go/internal/orchestrator"
)

var simpleAgentFlags = &CommonFlags{
	Model:      new(string),
	NoMarkdown: new(bool),
	Verbose:    new(bool),
	Debug:      new(bool),
	STT:        new(bool),
}

var simpleAgentCmd = &cobra.Command{
	Use:   "simple-agent",
	Short: "Start a conversation with agent mode enabled from the first cycle",
	Long: `simple-agent behaves like chat, except agent mode (spec's repeated
assistant-turn continuation until AssistantDone) starts enabled rather than
requiring the agent_mode command to turn it on.`,
	RunE: runSimpleAgent,
}

func init() {
	AddCommonFlags(simpleAgentCmd, simpleAgentFlags)
}

func runSimpleAgent(cmd *cobra.Command, args []string) error {
	orch, shutdown, err := buildOrchestrator(simpleAgentFlags,
		"You are hermes, operating in agent mode. Keep working until the task is "+
			"done, then invoke the done command.")
	if err != nil {
		return err
	}
	defer shutdown()

	orch.SetAgentMode(true)

	err = orch.Run(context.Background())
	if errors.Is(err, orchestrator.ErrEndOfInput) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("simple-agent: %w", err)
	}
	return nil
}
