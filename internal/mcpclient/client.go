// Package mcpclient implements the MCP Client (spec §4.6): spawns one MCP
// server subprocess, performs the SDK-managed initialize handshake, lists
// its tools, and issues tool calls against the resulting session.
//
// Grounded directly on internal/mcp/client.go: the subprocess is wired
// through github.com/modelcontextprotocol/go-sdk's mcp.Client /
// mcp.ClientSession over an mcp.CommandTransport rather than a hand-rolled
// JSON-RPC codec, so the wire framing, request-ID correlation, and
// initialize/tools-list/tools-call sequencing are the SDK's, not ours. The
// status FSM (disconnected/connecting/connected/error) and the stderr
// line-watcher are this module's own addition, layered over the SDK session
// the way the teacher layers its running bool and mutex over the same
// session type.
package mcpclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	implementationName    = "hermes-go"
	implementationVersion = "1.0.0"
)

// Status mirrors the per-client connection state spec §4.7's status report
// switches on.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// ToolSchema describes one tool discovered via tools/list. InputSchema is
// the SDK's own jsonschema-go type, so §4.7's data_json collapse rule can
// walk Properties/Required directly instead of re-parsing a map[string]any.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// ContentPart is one element of a tool call's result content.
type ContentPart struct {
	Type string
	Text string
}

// CallResult is a tool call's outcome, flattened from the SDK's
// []mcp.Content into text parts.
type CallResult struct {
	Content []ContentPart
	IsError bool
}

// Text concatenates the text parts of a result, the form command output
// rendering and chat notifications consume.
func (r CallResult) Text() string {
	var b strings.Builder
	for _, p := range r.Content {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Client manages one MCP server subprocess and the SDK session connected to
// it.
type Client struct {
	name    string
	command string
	args    []string
	env     map[string]string

	mu           sync.RWMutex
	status       Status
	errorMessage string
	tools        []ToolSchema
	sdkClient    *mcp.Client
	session      *mcp.ClientSession
}

// New constructs a Client for the given server command. Start must be
// called before it is usable.
func New(name, command string, args []string, env map[string]string) *Client {
	return &Client{
		name:    name,
		command: command,
		args:    args,
		env:     env,
		status:  StatusDisconnected,
	}
}

func (c *Client) Name() string { return c.name }

func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Client) ErrorMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errorMessage
}

func (c *Client) Tools() []ToolSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools
}

// Start spawns the server subprocess, connects the SDK client over a
// command transport, and lists its tools. The stderr pipe is wired
// separately from the transport so a "[error]" line can still flip the
// client to StatusError while the SDK owns stdin/stdout.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	c.status = StatusConnecting
	c.mu.Unlock()

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	for k, v := range c.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stderrR, stderrW := io.Pipe()
	cmd.Stderr = stderrW
	go c.watchStderr(stderrR)

	sdkClient := mcp.NewClient(&mcp.Implementation{
		Name:    implementationName,
		Version: implementationVersion,
	}, nil)

	transport := &mcp.CommandTransport{Command: cmd}
	session, err := sdkClient.Connect(ctx, transport, nil)
	if err != nil {
		return c.fail(fmt.Errorf("connect to MCP server %s: %w", c.name, err))
	}

	result, err := session.ListTools(ctx, nil)
	if err != nil {
		session.Close()
		return c.fail(fmt.Errorf("list tools from %s: %w", c.name, err))
	}

	tools := make([]ToolSchema, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	c.mu.Lock()
	c.sdkClient = sdkClient
	c.session = session
	c.tools = tools
	// A "[error]" stderr line seen during the handshake keeps StatusError.
	if c.status != StatusError {
		c.status = StatusConnected
	}
	c.mu.Unlock()
	return nil
}

// Stop closes the session and releases the subprocess. Idempotent.
func (c *Client) Stop() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.sdkClient = nil
	c.tools = nil
	if c.status != StatusError {
		c.status = StatusDisconnected
	}
	c.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Close()
}

// CallTool invokes a tool on the connected session (spec §4.7's execute
// step). args is the already-spliced data_json/scalar argument map.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (CallResult, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return CallResult{}, fmt.Errorf("MCP server %s is not running", c.name)
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return CallResult{}, fmt.Errorf("call tool %s: %w", name, err)
	}

	return CallResult{Content: flattenContent(result.Content), IsError: result.IsError}, nil
}

func flattenContent(content []mcp.Content) []ContentPart {
	parts := make([]ContentPart, 0, len(content))
	for _, item := range content {
		switch v := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, ContentPart{Type: "text", Text: v.Text})
		default:
			if data, err := json.Marshal(item); err == nil {
				parts = append(parts, ContentPart{Type: "json", Text: string(data)})
			}
		}
	}
	return parts
}

func (c *Client) fail(err error) error {
	c.mu.Lock()
	c.status = StatusError
	c.errorMessage = err.Error()
	c.mu.Unlock()
	return err
}

// watchStderr flips the client to StatusError the first time a "[error]"
// line appears on the subprocess's stderr, independent of whether the SDK
// session is otherwise healthy.
func (c *Client) watchStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(strings.ToLower(line), "[error]") {
			c.fail(fmt.Errorf("%s: %s", c.name, line))
		}
	}
}
