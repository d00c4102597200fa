package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/hermes-go/internal/orchestrator"
)

var chatFlags = &CommonFlags{
	Model:      new(string),
	NoMarkdown: new(bool),
	Verbose:    new(bool),
	Debug:      new(bool),
	STT:        new(bool),
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat conversation",
	Long: `chat runs the conversation cycle interactively: each cycle reads one line
(or command block) from you, then streams one assistant reply, alternating
until you issue the exit command or send EOF (Ctrl-D).`,
	RunE: runChat,
}

func init() {
	AddCommonFlags(chatCmd, chatFlags)
}

func runChat(cmd *cobra.Command, args []string) error {
	orch, shutdown, err := buildOrchestrator(chatFlags, "You are hermes, a terminal assistant. Be concise.")
	if err != nil {
		return err
	}
	defer shutdown()

	err = orch.Run(context.Background())
	if errors.Is(err, orchestrator.ErrEndOfInput) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}
