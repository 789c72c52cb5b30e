package provider

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// InProcessConnection talks to an mcp-go server living in the same process.
// It backs built-in providers and tests.
type InProcessConnection struct {
	session
	srv *server.MCPServer
}

func NewInProcessConnection(srv *server.MCPServer) *InProcessConnection {
	return &InProcessConnection{srv: srv}
}

func (c *InProcessConnection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}
	if c.srv == nil {
		return fmt.Errorf("no in-process server configured")
	}

	mcpClient, err := client.NewInProcessClient(c.srv)
	if err != nil {
		return fmt.Errorf("failed to create in-process client: %w", err)
	}
	return c.handshake(ctx, mcpClient)
}

func (c *InProcessConnection) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *InProcessConnection) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *InProcessConnection) Close() error {
	return c.close()
}

func (c *InProcessConnection) Connected() bool {
	return c.isConnected()
}
