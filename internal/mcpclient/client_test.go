package mcpclient

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// fakeServerScript is a minimal MCP stdio server for exercising the SDK
// handshake and a tool call without a real MCP server binary: it answers
// "initialize" and "tools/list" with a spec-shaped response and echoes the
// raw "tools/call" request line back inside its result text, so a test can
// still assert on the exact bytes the SDK transport wrote to the
// subprocess's stdin (spec §8 scenario 5) even though the client no longer
// marshals the request itself.
const fakeServerScript = `
while IFS= read -r line; do
  id=$(echo "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  case "$line" in
    *'"method":"initialize"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"protocolVersion":"2025-03-26","capabilities":{},"serverInfo":{"name":"fake","version":"0.0.1"}}}\n' "$id"
      ;;
    *'"method":"tools/list"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"tools":[{"name":"foo","description":"does foo","inputSchema":{"type":"object","properties":{"q":{"type":"string"}},"required":["q"]}}]}}\n' "$id"
      ;;
    *'"method":"tools/call"'*)
      printf '{"jsonrpc":"2.0","id":%s,"result":{"content":[{"type":"text","text":"ok: %s"}]}}\n' "$id" "$line"
      ;;
  esac
done
`

func startFakeClient(t *testing.T) *Client {
	t.Helper()
	c := New("fake", "sh", []string{"-c", fakeServerScript}, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = c.Stop() })
	return c
}

func TestHandshakeReachesConnectedWithTools(t *testing.T) {
	c := startFakeClient(t)

	if c.Status() != StatusConnected {
		t.Fatalf("expected status connected, got %s (err=%s)", c.Status(), c.ErrorMessage())
	}
	tools := c.Tools()
	if len(tools) != 1 || tools[0].Name != "foo" {
		t.Fatalf("expected one tool named foo, got %+v", tools)
	}
	if tools[0].InputSchema == nil || len(tools[0].InputSchema.Required) != 1 || tools[0].InputSchema.Required[0] != "q" {
		t.Errorf("expected input schema with required [q], got %+v", tools[0].InputSchema)
	}
}

func TestCallToolRequestBodyMatchesSpec(t *testing.T) {
	c := startFakeClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.CallTool(ctx, "foo", map[string]any{"q": "hello"})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}

	// The fake server echoed the raw request line back inside the text
	// content; decode it and check the shape spec §8 scenario 5 names. This
	// confirms the SDK transport still writes a plain, assertable JSON-RPC
	// line to the subprocess's stdin pipe.
	echoed := strings.TrimPrefix(result.Text(), "ok: ")
	var req struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"params"`
	}
	if err := json.Unmarshal([]byte(echoed), &req); err != nil {
		t.Fatalf("decode echoed request: %v (raw=%q)", err, echoed)
	}

	if req.JSONRPC != "2.0" || req.Method != "tools/call" {
		t.Errorf("unexpected envelope: %+v", req)
	}
	if req.Params.Name != "foo" || req.Params.Arguments["q"] != "hello" {
		t.Errorf("unexpected params: %+v", req.Params)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := startFakeClient(t)

	if err := c.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
	if c.Status() != StatusDisconnected {
		t.Errorf("expected disconnected after stop, got %s", c.Status())
	}
}

func TestCallToolWhenNotConnectedFails(t *testing.T) {
	c := New("never-started", "sh", []string{"-c", "cat"}, nil)

	_, err := c.CallTool(context.Background(), "foo", nil)
	if err == nil {
		t.Fatal("expected error calling tool before Start")
	}
}

func TestHandshakeFailsForBadCommand(t *testing.T) {
	c := New("broken", "this-binary-does-not-exist-xyz", nil, nil)

	err := c.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to fail for a nonexistent binary")
	}
	if c.Status() != StatusError {
		t.Errorf("expected status error, got %s", c.Status())
	}
}

func TestStderrErrorLineTransitionsToErrorStatus(t *testing.T) {
	script := `
echo '[error] something went wrong' >&2
while IFS= read -r line; do
  id=$(echo "$line" | sed -n 's/.*"id":\([0-9]*\).*/\1/p')
  case "$line" in
    *'"method":"initialize"'*) printf '{"jsonrpc":"2.0","id":%s,"result":{"protocolVersion":"2025-03-26","capabilities":{},"serverInfo":{"name":"noisy","version":"0.0.1"}}}\n' "$id" ;;
    *'"method":"tools/list"'*) printf '{"jsonrpc":"2.0","id":%s,"result":{"tools":[]}}\n' "$id" ;;
  esac
done
`
	c := New("noisy", "sh", []string{"-c", script}, nil)
	_ = c.Start(context.Background())
	t.Cleanup(func() { _ = c.Stop() })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status() == StatusError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if c.Status() != StatusError {
		t.Errorf("expected stderr [error] line to transition status to error, got %s", c.Status())
	}
}
