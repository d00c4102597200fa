package mcpmanager

import (
	"context"
	"testing"
	"time"
)

const singleToolServerScript = `
while IFS= read -r line; do
  id=$(echo "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  case "$line" in
    *'"method":"initialize"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"protocolVersion":"2025-03-26","capabilities":{},"serverInfo":{"name":"good","version":"0.0.1"}}}\n' "$id" ;;
    *'"method":"tools/list"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"tools":[{"name":"foo","description":"does foo","inputSchema":{"type":"object","properties":{"q":{"type":"string"}},"required":["q"]}}]}}\n' "$id" ;;
    *'"method":"tools/call"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"content":[{"type":"text","text":"hello reply"}]}}\n' "$id" ;;
  esac
done
`

func TestStartAllReachesInitialLoadWithMixedOutcomes(t *testing.T) {
	m := New(RoleChat, map[string]ServerConfig{
		"good": {Command: "sh", Args: []string{"-c", singleToolServerScript}},
		"bad":  {Command: "this-binary-does-not-exist-xyz"},
	})

	m.StartAll(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.WaitForInitialLoad(ctx); err != nil {
		t.Fatalf("wait for initial load: %v", err)
	}
	t.Cleanup(m.StopAll)

	if !m.HasErrors() {
		t.Errorf("expected HasErrors to be true due to the bad server")
	}
}

func TestCreateCommandsForModeYieldsOneCommandPerTool(t *testing.T) {
	m := New(RoleChat, map[string]ServerConfig{
		"good": {Command: "sh", Args: []string{"-c", singleToolServerScript}},
	})
	m.StartAll(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.WaitForInitialLoad(ctx); err != nil {
		t.Fatalf("wait for initial load: %v", err)
	}
	t.Cleanup(m.StopAll)

	cmds := m.CreateCommandsForMode(nil)
	if len(cmds) != 1 {
		t.Fatalf("expected exactly one command, got %d", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Name != "foo" {
		t.Errorf("expected command named foo, got %q", cmd.Name)
	}
	if len(cmd.Sections) != 1 || cmd.Sections[0].Name != "q" || !cmd.Sections[0].Required {
		t.Errorf("expected one required section q, got %+v", cmd.Sections)
	}
}

func TestAcknowledgeErrorsClearsStatusReport(t *testing.T) {
	m := New(RoleChat, map[string]ServerConfig{
		"bad": {Command: "this-binary-does-not-exist-xyz"},
	})
	m.StartAll(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.WaitForInitialLoad(ctx); err != nil {
		t.Fatalf("wait for initial load: %v", err)
	}

	if m.StatusReport() == "" {
		t.Fatalf("expected non-empty status report before acknowledging errors")
	}
	m.AcknowledgeErrors()
	if m.StatusReport() != "" {
		t.Errorf("expected empty status report after acknowledging errors")
	}
}
