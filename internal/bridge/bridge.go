package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"toolhub/internal/capability"
	"toolhub/internal/executor"
	"toolhub/internal/protocol"
	"toolhub/internal/schema"
	"toolhub/pkg/logging"
)

// Catalog is the part of the protocol server the bridge republishes.
// *protocol.Server implements it.
type Catalog interface {
	IsCategoryAllowed(category string) bool
	Resources() []protocol.Resource
	ReadResource(ctx context.Context, uri string) (any, error)
}

// Options configures a Bridge.
type Options struct {
	Name    string
	Version string
}

// Bridge keeps an mcp-go server in sync with the capability registry.
type Bridge struct {
	registry *capability.Registry
	catalog  Catalog
	invoker  protocol.Invoker
	srv      *server.MCPServer

	mu    sync.Mutex
	tools map[string]string // tool name -> capability type

	unsubscribe func()
}

// New creates a bridge and publishes the current catalog.
func New(registry *capability.Registry, catalog Catalog, invoker protocol.Invoker, opts Options) *Bridge {
	if opts.Name == "" {
		opts.Name = "toolhub"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	b := &Bridge{
		registry: registry,
		catalog:  catalog,
		invoker:  invoker,
		srv: server.NewMCPServer(opts.Name, opts.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
		tools: make(map[string]string),
	}

	b.Sync()
	b.SyncResources()
	b.unsubscribe = registry.Subscribe(func(capability.Change) {
		b.Sync()
	})
	return b
}

// MCPServer returns the underlying server.
func (b *Bridge) MCPServer() *server.MCPServer {
	return b.srv
}

// Close stops following the registry.
func (b *Bridge) Close() {
	b.unsubscribe()
}

// ToolName maps a capability type to its MCP tool name.
func ToolName(capType string) string {
	return strings.ReplaceAll(capType, ".", "_")
}

// Sync replaces the published tool set with the allow-listed capabilities.
// Call it after the allow-list changes; registry changes trigger it
// automatically. Syncs are serialized so the last one to publish has read
// the newest registry state.
func (b *Bridge) Sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	defs := b.registry.GetAll()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })

	tools := make([]server.ServerTool, 0, len(defs))
	names := make(map[string]string, len(defs))
	for _, def := range defs {
		if !b.catalog.IsCategoryAllowed(def.Category) {
			continue
		}
		name := ToolName(def.Type)
		if prev, taken := names[name]; taken {
			logging.Warn("Bridge", "Tool name %s of %s collides with %s, skipping", name, def.Type, prev)
			continue
		}
		names[name] = def.Type
		tools = append(tools, server.ServerTool{
			Tool:    toolFor(name, def),
			Handler: b.handlerFor(def.Type),
		})
	}

	b.tools = names
	b.srv.SetTools(tools...)
	logging.Debug("Bridge", "Published %d tools", len(tools))
}

// SyncResources publishes the catalog's resources.
func (b *Bridge) SyncResources() {
	var resources []server.ServerResource
	for _, r := range b.catalog.Resources() {
		resources = append(resources, server.ServerResource{
			Resource: mcp.NewResource(r.URI, r.Name,
				mcp.WithResourceDescription(r.Description),
				mcp.WithMIMEType(r.MIMEType),
			),
			Handler: b.resourceHandler(r.URI, r.MIMEType),
		})
	}
	if len(resources) > 0 {
		b.srv.AddResources(resources...)
	}
}

// NotifyResourceUpdated tells connected clients that uri has new content.
func (b *Bridge) NotifyResourceUpdated(uri string) {
	b.srv.SendNotificationToAllClients(mcp.MethodNotificationResourceUpdated, map[string]any{"uri": uri})
}

// Tools returns the published tool names mapped to capability types.
func (b *Bridge) Tools() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.tools))
	for k, v := range b.tools {
		out[k] = v
	}
	return out
}

func toolFor(name string, def capability.Definition) mcp.Tool {
	description := def.Description
	if description == "" {
		description = def.Label
	}
	raw, err := schema.RawInputSchema(def.ConfigSchema)
	if err != nil {
		logging.Warn("Bridge", "Falling back to unordered schema for %s: %v", def.Type, err)
		tool := mcp.NewTool(name, mcp.WithDescription(description))
		tool.InputSchema = schema.ToInputSchema(def.ConfigSchema)
		return tool
	}
	return mcp.NewToolWithRawSchema(name, description, raw)
}

func (b *Bridge) handlerFor(capType string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// The allow-list may have changed since the tool was published.
		if def, ok := b.registry.Get(capType); ok && !b.catalog.IsCategoryAllowed(def.Category) {
			return mcp.NewToolResultErrorf("CATEGORY_NOT_ALLOWED: category %q is not allowed", def.Category), nil
		}
		result := b.invoker.Invoke(ctx, capType, nil, req.GetArguments())
		return ToCallToolResult(result), nil
	}
}

// ToCallToolResult converts an invocation envelope into an MCP tool result.
// Failures become error results carrying "CODE: message" text.
func ToCallToolResult(r *executor.Result) *mcp.CallToolResult {
	if r == nil {
		return mcp.NewToolResultError("INTERNAL: no result")
	}
	if !r.Success {
		if r.Error == nil {
			return mcp.NewToolResultError("INVOCATION_FAILED: invocation failed")
		}
		res := mcp.NewToolResultError(fmt.Sprintf("%s: %s", r.Error.Code, r.Error.Message))
		res.StructuredContent = r.Error
		return res
	}

	if text, ok := r.Outputs["text"].(string); ok && len(r.Outputs) == 1 {
		return mcp.NewToolResultText(text)
	}
	encoded, err := json.Marshal(r.Outputs)
	if err != nil {
		return mcp.NewToolResultErrorf("INTERNAL: failed to encode outputs: %v", err)
	}
	return mcp.NewToolResultStructured(r.Outputs, string(encoded))
}

func (b *Bridge) resourceHandler(uri, mimeType string) server.ResourceHandlerFunc {
	return func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		content, err := b.catalog.ReadResource(ctx, uri)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: mimeType, Text: string(encoded)},
		}, nil
	}
}
