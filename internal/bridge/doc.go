// Package bridge republishes the capability catalog as an MCP server.
//
// Every allow-listed capability becomes an MCP tool named after its type
// with dots replaced by underscores ("mcp.github.search" is exposed as
// "mcp_github_search"). The tool set is rebuilt whenever the registry
// changes. Calls are routed through the execution adapter, so MCP clients
// see the same timeouts, dependency checks and error codes as JSON-RPC
// callers. The protocol server's resources are published alongside.
package bridge
