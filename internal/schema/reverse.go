package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"

	"toolhub/internal/capability"
)

// ToInputSchema converts config fields back into an MCP input schema.
func ToInputSchema(fields []capability.ConfigField) mcp.ToolInputSchema {
	s := mcp.ToolInputSchema{
		Type:       "object",
		Properties: make(map[string]any, len(fields)),
	}
	for _, f := range fields {
		s.Properties[f.Key] = propertyFor(f)
		if f.Required {
			s.Required = append(s.Required, f.Key)
		}
	}
	return s
}

// RawInputSchema is like ToInputSchema but encodes the schema as JSON with
// properties in field order, for use as mcp.Tool.RawInputSchema.
func RawInputSchema(fields []capability.ConfigField) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	var required []string
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(propertyFor(f))
		if err != nil {
			return nil, fmt.Errorf("failed to encode property %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		if f.Required {
			required = append(required, f.Key)
		}
	}
	buf.WriteByte('}')
	if len(required) > 0 {
		req, err := json.Marshal(required)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"required":`)
		buf.Write(req)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func propertyFor(f capability.ConfigField) map[string]any {
	p := map[string]any{"type": jsonType(f.Type)}
	if f.Description != "" {
		p["description"] = f.Description
	}
	if f.Default != nil {
		p["default"] = f.Default
	}
	if len(f.Options) > 0 {
		enum := make([]any, 0, len(f.Options))
		for _, o := range f.Options {
			enum = append(enum, o.Value)
		}
		p["enum"] = enum
	}
	if f.Min != nil {
		p["minimum"] = *f.Min
	}
	if f.Max != nil {
		p["maximum"] = *f.Max
	}
	return p
}

func jsonType(t capability.FieldType) string {
	switch t {
	case capability.FieldNumber:
		return "number"
	case capability.FieldToggle:
		return "boolean"
	case capability.FieldJSON:
		return "object"
	default:
		return "string"
	}
}

// FromStruct reflects a Go arguments struct into a Schema. Fields are kept in
// struct order; only fields tagged `jsonschema:"required"` are required.
func FromStruct(v any) (Schema, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	js := reflector.Reflect(v)
	js.Version = ""

	data, err := json.Marshal(js)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return ParseRaw(data)
}
