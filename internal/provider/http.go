package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/pkg/logging"
)

// HTTPConnection talks to a remote provider over MCP streamable-http, or
// over the legacy SSE transport when created with NewSSEConnection.
type HTTPConnection struct {
	session
	url     string
	headers map[string]string
	timeout time.Duration
	sse     bool
}

// NewHTTPConnection creates an unconnected streamable-http connection.
// A zero timeout leaves the per-request HTTP timeout unset.
func NewHTTPConnection(url string, headers map[string]string, timeout time.Duration) *HTTPConnection {
	return &HTTPConnection{
		url:     url,
		headers: headers,
		timeout: timeout,
	}
}

// NewSSEConnection creates an unconnected SSE connection.
func NewSSEConnection(url string, headers map[string]string) *HTTPConnection {
	return &HTTPConnection{
		url:     url,
		headers: headers,
		sse:     true,
	}
}

// Connect performs the MCP handshake against the endpoint.
func (c *HTTPConnection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	mcpClient, err := c.newClient()
	if err != nil {
		return err
	}

	if err := c.handshake(ctx, mcpClient); err != nil {
		return err
	}

	logging.Debug("HTTPConnection", "Connected to %s (%s %s)", c.url, c.server.Name, c.server.Version)
	return nil
}

func (c *HTTPConnection) newClient() (*client.Client, error) {
	if c.sse {
		var opts []transport.ClientOption
		if len(c.headers) > 0 {
			opts = append(opts, transport.WithHeaders(c.headers))
		}
		mcpClient, err := client.NewSSEMCPClient(c.url, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create SSE client for %s: %w", c.url, err)
		}
		return mcpClient, nil
	}

	var opts []transport.StreamableHTTPCOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
	}
	if c.timeout > 0 {
		opts = append(opts, transport.WithHTTPTimeout(c.timeout))
	}
	mcpClient, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamable-http client for %s: %w", c.url, err)
	}
	return mcpClient, nil
}

func (c *HTTPConnection) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *HTTPConnection) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *HTTPConnection) Close() error {
	return c.close()
}

func (c *HTTPConnection) Connected() bool {
	return c.isConnected()
}
