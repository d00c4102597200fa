package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/samsaffron/hermes-go/internal/applog"
	"github.com/samsaffron/hermes-go/internal/command"
	"github.com/samsaffron/hermes-go/internal/fileops"
	"github.com/samsaffron/hermes-go/internal/history"
	"github.com/samsaffron/hermes-go/internal/llmconfig"
	"github.com/samsaffron/hermes-go/internal/mcpmanager"
	"github.com/samsaffron/hermes-go/internal/orchestrator"
	"github.com/samsaffron/hermes-go/internal/participant"
	"github.com/samsaffron/hermes-go/internal/providerapi"
	"github.com/samsaffron/hermes-go/internal/providerstub"
	"github.com/samsaffron/hermes-go/internal/render"
)

// loadConfig resolves the configuration file, defaulting when none exists
// (spec §6: "a missing file is not an error").
func loadConfig() (*llmconfig.Config, error) {
	cfg, err := llmconfig.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveModel applies the CLI --model override over the configured
// default, matching the teacher's CLI-flag-beats-config precedence
// (cmd/bootstrap.go's applyProviderOverrides).
func resolveModel(cfg *llmconfig.Config, modelFlag string) string {
	if modelFlag != "" {
		return modelFlag
	}
	return cfg.DefaultModel
}

// newRenderer selects the glamour or plain renderer per --no-markdown
// (spec §6).
func newRenderer(noMarkdown bool) participant.Renderer {
	if noMarkdown {
		return render.NewPlainRenderer(os.Stdout)
	}
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	return render.NewGlamourRenderer(os.Stdout, width)
}

// newProvider constructs the provider for model. No real provider
// implementation ships with this module (spec §1 non-goal): the stub echo
// provider exercises the streaming seam end to end so `hermes chat` and
// `hermes simple-agent` run out of the box without API credentials. Wiring
// a real provider (reading cfg.Providers for credentials, branching on the
// provider name in model) is left to an integration this module's scope
// does not cover.
func newProvider(cfg *llmconfig.Config, model string) providerapi.Provider {
	return providerstub.New()
}

// ttyConfirmer prompts on /dev/tty for a y/N answer, so confirmation still
// works when stdin is piped (spec §4.9's file-overwrite prompt, §4.8 step
// 3c's MCP-error acknowledgement prompt). Grounded on the teacher's
// TTYApprovalPrompt (internal/tools/prompt.go), narrowed from its huh-based
// form UI to a plain bufio read since this module's command surface is
// smaller.
func ttyConfirmer(prompt string) bool {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer tty.Close()

	fmt.Fprintf(tty, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(tty).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// buildOrchestrator wires one conversation core: config, logger, renderer,
// provider, command registry, the chat-role MCP manager (no deep-research
// manager is built here), the file-operations handler, and the two
// participants, then returns the ready-to-run Orchestrator plus a shutdown
// func.
func buildOrchestrator(f *CommonFlags, systemPrompt string) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	// internal/orchestrator logs through slog's default logger rather than an
	// injected instance; this sets its level and routes
	// it to stderr so it never interleaves with assistant/user-facing stdout.
	slog.SetDefault(applog.New(applog.LevelForFlags(*f.Verbose, *f.Debug), os.Stderr))

	model := resolveModel(cfg, *f.Model)
	h := history.New()
	registry := command.NewRegistry()
	command.RegisterBuiltins(registry)

	renderer := newRenderer(*f.NoMarkdown)
	userP := participant.NewUser(os.Stdin, os.Stdout, renderer, registry)

	provider := newProvider(cfg, model)
	assistantP := participant.NewAssistant(h, provider, model, systemPrompt, registry)

	chatMCP := mcpmanager.New(mcpmanager.RoleChat, cfg.MCP.ChatServers)
	notify := func(commandName, output string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", commandName, output)
	}
	assistantP.WithMCPSource(chatMCP, notify)

	fileEditor := fileops.New("", fileops.Confirmer(ttyConfirmer))

	orch := orchestrator.New(h, userP, assistantP,
		orchestrator.WithMCP(chatMCP),
		orchestrator.WithFileEditor(fileEditor),
		orchestrator.WithConfirmer(orchestrator.Confirmer(ttyConfirmer)),
	)

	chatMCP.StartAll(context.Background())

	shutdown := func() {
		chatMCP.StopAll()
	}
	return orch, shutdown, nil
}
