package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "toolhub"
	clientVersion = "1.0.0"
)

// Connection is a live session with one tool provider.
type Connection interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
	// Connected reports whether the session is still usable.
	Connected() bool
}

// Compile-time interface compliance checks
var (
	_ Connection = (*StdioConnection)(nil)
	_ Connection = (*HTTPConnection)(nil)
	_ Connection = (*InProcessConnection)(nil)
)

// session holds the mcp-go client shared by every transport.
type session struct {
	mu        sync.RWMutex
	client    *client.Client
	connected bool
	server    mcp.Implementation
}

// checkConnected must be called with at least the read lock held.
func (s *session) checkConnected() error {
	if !s.connected || s.client == nil {
		return fmt.Errorf("provider not connected")
	}
	return nil
}

// handshake starts the transport, runs the MCP initialize exchange and marks
// the session connected. On failure the client is closed.
func (s *session) handshake(ctx context.Context, c *client.Client) error {
	// Streaming transports keep using the start context after Connect
	// returns, so it must outlive ctx. Close ends the stream.
	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to start transport: %w", err)
	}

	res, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	s.client = c
	s.connected = true
	s.server = res.ServerInfo
	return nil
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.connected = false
	s.client = nil
	return err
}

func (s *session) isConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// ServerInfo returns the name and version the provider reported.
func (s *session) ServerInfo() mcp.Implementation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

func (s *session) listTools(ctx context.Context) ([]mcp.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	var (
		tools []mcp.Tool
		req   mcp.ListToolsRequest
	)
	for {
		result, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == "" {
			return tools, nil
		}
		req.Params.Cursor = result.NextCursor
	}
}

func (s *session) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkConnected(); err != nil {
		return nil, err
	}

	result, err := s.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return result, nil
}
