// Package provider connects to external MCP tool providers.
//
// A Connection wraps an mcp-go client over one of the stdio, streamable-http,
// sse or in-process transports. Connections returned by a Factory have
// already completed the MCP initialize handshake; after Close, every call
// fails with a "not connected" error.
package provider
