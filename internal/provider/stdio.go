package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/pkg/logging"
)

// StdioConnection talks to a provider running as a child process.
type StdioConnection struct {
	session
	command string
	args    []string
	env     map[string]string
	dir     string
}

// NewStdioConnection creates an unconnected stdio connection.
func NewStdioConnection(command string, args []string, env map[string]string, dir string) *StdioConnection {
	return &StdioConnection{
		command: command,
		args:    args,
		env:     env,
		dir:     dir,
	}
}

// Connect spawns the process and performs the MCP handshake.
func (c *StdioConnection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	logging.Debug("StdioConnection", "Starting provider process: %s %v (dir=%q)", c.command, c.args, c.dir)

	mcpClient, err := client.NewStdioMCPClientWithOptions(c.command, envList(c.env), c.args,
		transport.WithCommandFunc(c.commandFunc))
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", c.command, err)
	}

	if err := c.handshake(ctx, mcpClient); err != nil {
		return err
	}

	logging.Debug("StdioConnection", "Connected to %s (%s %s)", c.command, c.server.Name, c.server.Version)
	return nil
}

// The process outlives the Connect context, so it is started with the
// transport's own context rather than ctx.
func (c *StdioConnection) commandFunc(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), env...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	return cmd, nil
}

func (c *StdioConnection) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *StdioConnection) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StdioConnection) Close() error {
	return c.close()
}

func (c *StdioConnection) Connected() bool {
	return c.isConnected()
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
