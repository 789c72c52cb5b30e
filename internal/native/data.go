package native

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"toolhub/internal/capability"
)

type extractArgs struct {
	Data any    `json:"data" jsonschema:"required" jsonschema_description:"JSON value or JSON text to read from" validate:"required"`
	Path string `json:"path" jsonschema:"required" jsonschema_description:"Dotted path such as items.0.name" validate:"required"`
}

func jsonExtract() (capability.Definition, error) {
	return define(spec{
		Type:        "json.extract",
		Category:    CategoryData,
		Label:       "Extract",
		Description: "Read a value from JSON by dotted path",
		Icon:        "search",
	}, func(_ context.Context, args extractArgs) (map[string]any, error) {
		data := args.Data
		if s, ok := data.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				data = parsed
			}
		}
		value, found := Extract(data, args.Path)
		return map[string]any{"value": value, "found": found}, nil
	})
}

// Extract walks path through maps and slices. Numeric segments index
// slices. An empty path returns data itself.
func Extract(data any, path string) (any, bool) {
	path = strings.Trim(path, ".")
	if path == "" {
		return data, true
	}

	current := data
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			current = v[i]
		default:
			return nil, false
		}
	}
	return current, true
}
