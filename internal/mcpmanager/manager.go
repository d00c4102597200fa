// Package mcpmanager implements the MCP Manager (spec §4.7): owns a set of
// mcpclient.Client instances, drives their startup concurrently, tracks
// initial-load completion and per-client error state, and synthesises a
// command.Command per discovered tool.
//
// Grounded directly on internal/mcp/manager.go: a sync.RWMutex-guarded map
// of client states, Enable-style concurrent goroutine-per-client startup,
// and a buffered non-blocking-send status channel for UI notification.
// Spec's "two disjoint sets of clients by role (chat vs deep-research)" is
// expressed as two *Manager instances constructed with a role tag, since
// routing (not a second implementation) is the only thing that differs.
package mcpmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/samsaffron/hermes-go/internal/command"
	"github.com/samsaffron/hermes-go/internal/mcpclient"
)

// Role tags which disjoint client set a Manager instance serves (spec §4.7).
type Role string

const (
	RoleChat         Role = "chat"
	RoleDeepResearch Role = "deep_research"
)

// ServerConfig describes one configured MCP server.
type ServerConfig struct {
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
}

// clientState mirrors the teacher's ServerState: a client plus its most
// recently observed outcome.
type clientState struct {
	client *mcpclient.Client
	err    error
}

// Manager owns one role's set of MCP clients.
type Manager struct {
	role Role

	mu                 sync.RWMutex
	servers            map[string]ServerConfig
	clients            map[string]*clientState
	initialLoadDone    bool
	initialLoadCh      chan struct{}
	errorsAcknowledged bool

	statusChan chan StatusUpdate
}

// StatusUpdate is sent on an optional channel as clients progress through
// startup, for UI notification (spec §5's "background scheduler").
type StatusUpdate struct {
	Name   string
	Status mcpclient.Status
	Err    error
}

// New constructs a Manager for the given role and server set. Role is
// purely a label; it does not change behaviour.
func New(role Role, servers map[string]ServerConfig) *Manager {
	return &Manager{
		role:          role,
		servers:       servers,
		clients:       make(map[string]*clientState),
		initialLoadCh: make(chan struct{}),
	}
}

// SetStatusChannel installs a channel for status notifications. Sends are
// non-blocking (spec-grounded on the teacher's sendStatus: "don't block if
// channel is full").
func (m *Manager) SetStatusChannel(ch chan StatusUpdate) {
	m.mu.Lock()
	m.statusChan = ch
	m.mu.Unlock()
}

func (m *Manager) sendStatus(name string, status mcpclient.Status, err error) {
	m.mu.RLock()
	ch := m.statusChan
	m.mu.RUnlock()
	if ch == nil {
		return
	}
	select {
	case ch <- StatusUpdate{Name: name, Status: status, Err: err}:
	default:
	}
}

// StartAll launches every configured client's Start concurrently with no
// ordering constraints (spec §4.7), and sets initialLoadDone once every
// start has returned — success or error; errors never block the flag.
func (m *Manager) StartAll(ctx context.Context) {
	var wg sync.WaitGroup
	for name, cfg := range m.servers {
		name, cfg := name, cfg
		client := mcpclient.New(name, cfg.Command, cfg.Args, cfg.Env)

		m.mu.Lock()
		m.clients[name] = &clientState{client: client}
		m.mu.Unlock()
		m.sendStatus(name, mcpclient.StatusConnecting, nil)

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.Start(ctx)

			m.mu.Lock()
			m.clients[name].err = err
			m.mu.Unlock()

			m.sendStatus(name, client.Status(), err)
		}()
	}

	go func() {
		wg.Wait()
		m.mu.Lock()
		m.initialLoadDone = true
		m.mu.Unlock()
		close(m.initialLoadCh)
	}()
}

// WaitForInitialLoad blocks until every client's start has returned, or ctx
// is cancelled first.
func (m *Manager) WaitForInitialLoad(ctx context.Context) error {
	select {
	case <-m.initialLoadCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasErrors reports whether any client is currently in StatusError.
func (m *Manager) HasErrors() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.clients {
		if st.client.Status() == mcpclient.StatusError {
			return true
		}
	}
	return false
}

// AcknowledgeErrors marks currently-outstanding errors as seen, a one-shot,
// user-driven action (spec §4.7).
func (m *Manager) AcknowledgeErrors() {
	m.mu.Lock()
	m.errorsAcknowledged = true
	m.mu.Unlock()
}

// StatusReport returns a human-readable summary, or "" when there is
// nothing to report: while loading, names clients still connecting; once
// loaded, the error report if unacknowledged errors exist (spec §4.7).
func (m *Manager) StatusReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialLoadDone {
		var connecting []string
		for name, st := range m.clients {
			if st.client.Status() == mcpclient.StatusConnecting {
				connecting = append(connecting, name)
			}
		}
		if len(connecting) == 0 {
			return ""
		}
		return "still connecting: " + strings.Join(connecting, ", ")
	}

	if m.errorsAcknowledged {
		return ""
	}

	var lines []string
	for name, st := range m.clients {
		if st.client.Status() == mcpclient.StatusError {
			lines = append(lines, fmt.Sprintf("%s: %s", name, st.client.ErrorMessage()))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// StopAll terminates every managed client.
func (m *Manager) StopAll() {
	m.mu.Lock()
	clients := make([]*mcpclient.Client, 0, len(m.clients))
	for _, st := range m.clients {
		clients = append(clients, st.client)
	}
	m.clients = make(map[string]*clientState)
	m.mu.Unlock()

	for _, c := range clients {
		_ = c.Stop()
	}
}

// CreateCommandsForMode synthesises one command.Command per tool across
// every connected client (spec §4.7's "command synthesis"). notify routes
// a command's textual result to the appropriate destination — the chat
// notifications channel or the deep-research command-output buffer — per
// the mode this Manager instance was built for.
func (m *Manager) CreateCommandsForMode(notify func(commandName, output string)) []*command.Command {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cmds []*command.Command
	for _, st := range m.clients {
		if st.client.Status() != mcpclient.StatusConnected {
			continue
		}
		client := st.client
		for _, tool := range client.Tools() {
			cmds = append(cmds, synthesiseCommand(client, tool, notify))
		}
	}
	return cmds
}

func synthesiseCommand(client *mcpclient.Client, tool mcpclient.ToolSchema, notify func(string, string)) *command.Command {
	cmd := &command.Command{Name: tool.Name, HelpText: tool.Description}

	required := make(map[string]bool)
	complexProperty := false
	var propertyNames []string

	if tool.InputSchema != nil {
		for _, r := range tool.InputSchema.Required {
			required[r] = true
		}
		for name, prop := range tool.InputSchema.Properties {
			propertyNames = append(propertyNames, name)
			if prop != nil && (prop.Type == "object" || prop.Type == "array") {
				complexProperty = true
			}
		}
	}

	if complexProperty {
		// A single data_json section collapses any complex (object/array)
		// property rather than decomposing nested structures (spec §4.7:
		// "a deliberate simplification").
		cmd.AddSection("data_json", false, "JSON blob of tool arguments", false)
	} else {
		for _, name := range propertyNames {
			desc := ""
			if tool.InputSchema != nil && tool.InputSchema.Properties[name] != nil {
				desc = tool.InputSchema.Properties[name].Description
			}
			cmd.AddSection(name, required[name], desc, false)
		}
	}

	cmd.Execute = func(ctx command.Context, args command.Args) (any, error) {
		callArgs := buildCallArgs(args)

		result, err := client.CallTool(context.Background(), tool.Name, callArgs)
		if err != nil {
			return nil, fmt.Errorf("call tool %s: %w", tool.Name, err)
		}
		text := result.Text()
		if notify != nil {
			notify(tool.Name, text)
		}
		return text, nil
	}

	return cmd
}

// buildCallArgs splices data_json (if present) with individual scalar
// sections overriding any overlapping key (spec §4.7 execute step (a)).
func buildCallArgs(args command.Args) map[string]any {
	out := make(map[string]any)
	if raw, ok := args["data_json"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			_ = json.Unmarshal([]byte(s), &out)
		}
	}
	for name, v := range args {
		if name == "data_json" {
			continue
		}
		out[name] = v
	}
	return out
}
