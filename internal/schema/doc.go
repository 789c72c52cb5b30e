// Package schema translates between JSON-Schema tool descriptions and the
// capability model.
//
// Discovery runs Provider tool → Schema → Translation → capability.Definition.
// Raw schemas are parsed with their declared property order intact; schemas
// that only exist as Go maps (mcp.ToolInputSchema) are ordered by property
// name. Translation is total: malformed properties degrade to KindUnknown and
// a schema without properties yields only the convenience ports.
//
// The reverse direction (ToInputSchema, RawInputSchema) lets natively
// registered capabilities be published as MCP tools, and FromStruct derives
// a schema from a Go arguments struct.
package schema
