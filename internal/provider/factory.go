package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"toolhub/pkg/logging"
)

// Transport selects how a provider is reached.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportStreamableHTTP Transport = "streamable-http"
	TransportSSE            Transport = "sse"
	TransportInProcess      Transport = "in-process"
)

// Spec describes how to reach one provider.
type Spec struct {
	Transport Transport

	// stdio
	Command string
	Args    []string
	Env     map[string]string
	Dir     string

	// streamable-http and sse
	URL     string
	Headers map[string]string
	Timeout time.Duration

	// in-process
	Server *server.MCPServer
}

// Factory opens connections to providers. The returned connection has
// completed the MCP handshake.
type Factory interface {
	Connect(ctx context.Context, spec Spec) (Connection, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, spec Spec) (Connection, error)

// Connect calls f.
func (f FactoryFunc) Connect(ctx context.Context, spec Spec) (Connection, error) {
	return f(ctx, spec)
}

type connector interface {
	Connection
	Connect(ctx context.Context) error
}

// DefaultFactory builds connections with the mcp-go transports.
type DefaultFactory struct{}

func newConnector(spec Spec) (connector, error) {
	switch spec.Transport {
	case TransportStdio, "":
		if spec.Command == "" {
			return nil, fmt.Errorf("command is required for stdio transport")
		}
		return NewStdioConnection(spec.Command, spec.Args, spec.Env, spec.Dir), nil

	case TransportStreamableHTTP:
		if spec.URL == "" {
			return nil, fmt.Errorf("url is required for streamable-http transport")
		}
		return NewHTTPConnection(spec.URL, spec.Headers, spec.Timeout), nil

	case TransportSSE:
		if spec.URL == "" {
			return nil, fmt.Errorf("url is required for sse transport")
		}
		return NewSSEConnection(spec.URL, spec.Headers), nil

	case TransportInProcess:
		if spec.Server == nil {
			return nil, fmt.Errorf("server is required for in-process transport")
		}
		return NewInProcessConnection(spec.Server), nil

	default:
		return nil, fmt.Errorf("unsupported transport: %s (supported: %s, %s, %s, %s)",
			spec.Transport, TransportStdio, TransportStreamableHTTP, TransportSSE, TransportInProcess)
	}
}

// Connect creates the connection for spec and runs the handshake.
func (DefaultFactory) Connect(ctx context.Context, spec Spec) (Connection, error) {
	c, err := newConnector(spec)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		logging.Debug("ProviderFactory", "Connect via %s failed: %v", spec.Transport, err)
		return nil, err
	}
	return c, nil
}
