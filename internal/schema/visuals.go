package schema

import "strings"

const (
	defaultIcon  = "tool"
	defaultColor = "#6b7280"
)

// iconRules is checked in order; the first rule with a keyword contained in
// the tool name wins.
var iconRules = []struct {
	keywords []string
	icon     string
}{
	{[]string{"search", "find", "lookup"}, "search"},
	{[]string{"db", "sql", "query", "database"}, "database"},
	{[]string{"fetch", "http", "url", "browse", "navigate", "web"}, "globe"},
	{[]string{"write", "create", "edit", "update", "insert"}, "edit"},
	{[]string{"delete", "remove"}, "trash"},
	{[]string{"read", "file", "directory", "list"}, "file"},
	{[]string{"git", "commit", "repo", "issue", "pull"}, "git-branch"},
	{[]string{"image", "screenshot", "photo"}, "image"},
	{[]string{"memory", "remember", "entity"}, "brain"},
	{[]string{"map", "geo", "place", "direction"}, "map"},
	{[]string{"message", "slack", "chat", "post"}, "message"},
}

var categoryColors = map[string]string{
	"search":  "#3b82f6",
	"files":   "#f59e0b",
	"data":    "#10b981",
	"ai":      "#8b5cf6",
	"text":    "#64748b",
	"web":     "#06b6d4",
	"dev":     "#ef4444",
	"maps":    "#84cc16",
	"comms":   "#ec4899",
	"mcp":     "#6366f1",
	"plugins": "#6366f1",
}

// InferIcon picks a display icon from keywords in a tool name.
func InferIcon(toolName string) string {
	name := strings.ToLower(toolName)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.icon
			}
		}
	}
	return defaultIcon
}

// CategoryColor returns the display color for a category, falling back to a
// neutral gray.
func CategoryColor(category string) string {
	if c, ok := categoryColors[strings.ToLower(category)]; ok {
		return c
	}
	return defaultColor
}
