package schema

import (
	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/internal/capability"
)

// ToolOptions controls how DefinitionFromTool names and files a tool.
type ToolOptions struct {
	PluginID string
	Category string
}

// TypeKey returns the registry key of a plugin tool: "mcp.<plugin>.<tool>".
func TypeKey(pluginID, toolName string) string {
	return "mcp." + pluginID + "." + toolName
}

// DefinitionFromTool builds the capability definition of a discovered MCP
// tool. The executor is left nil for the caller to fill in.
func DefinitionFromTool(tool mcp.Tool, opts ToolOptions) capability.Definition {
	t := Translate(FromTool(tool))

	category := opts.Category
	if category == "" {
		category = "plugins"
	}

	label := tool.Annotations.Title
	if label == "" {
		label = Humanize(tool.Name)
	}

	def := capability.Definition{
		Type:         TypeKey(opts.PluginID, tool.Name),
		Category:     category,
		Subcategory:  opts.PluginID,
		Label:        label,
		Description:  tool.Description,
		Icon:         InferIcon(tool.Name),
		Color:        CategoryColor(category),
		Tags:         toolTags(tool, opts.PluginID),
		Ports:        t.Ports,
		ConfigSchema: t.Fields,
		Runtime:      capability.RuntimeMCP,
		PluginOwner:  opts.PluginID,
	}
	if opts.PluginID != "" {
		def.Requirements = &capability.Requirements{Provider: opts.PluginID}
	}
	return def
}

func toolTags(tool mcp.Tool, pluginID string) []string {
	tags := []string{"mcp"}
	if pluginID != "" {
		tags = append(tags, pluginID)
	}
	if tool.Annotations.ReadOnlyHint != nil && *tool.Annotations.ReadOnlyHint {
		tags = append(tags, "read-only")
	}
	if tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint {
		tags = append(tags, "destructive")
	}
	return tags
}
