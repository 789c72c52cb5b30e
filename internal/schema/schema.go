package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// Kind is the primitive type of a schema property.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Property is one entry of an input schema's properties.
type Property struct {
	Name        string
	Kind        Kind
	Description string
	Enum        []any
	Default     any
	// Required is the property-level "required: true" flag. The top-level
	// required list lives on Schema.
	Required bool
	Minimum  *float64
	Maximum  *float64
	// Raw is the property's original JSON object, or nil if it was not an
	// object.
	Raw map[string]any
}

// Schema is an input schema with its properties in a stable order.
type Schema struct {
	Properties []Property
	Required   []string
}

// IsRequired reports whether name is required by either the top-level
// required list or its own required flag.
func (s Schema) IsRequired(p Property) bool {
	if p.Required {
		return true
	}
	for _, r := range s.Required {
		if r == p.Name {
			return true
		}
	}
	return false
}

// FromTool extracts the input schema of an MCP tool. A raw schema is parsed
// in declaration order; a structured one is ordered lexicographically.
// Translation never fails: an unparsable raw schema yields an empty Schema.
func FromTool(tool mcp.Tool) Schema {
	if len(tool.RawInputSchema) > 0 {
		s, err := ParseRaw(tool.RawInputSchema)
		if err != nil {
			return Schema{}
		}
		return s
	}
	return FromInputSchema(tool.InputSchema)
}

// FromInputSchema converts an mcp.ToolInputSchema. Go maps carry no order, so
// properties are sorted by name.
func FromInputSchema(in mcp.ToolInputSchema) Schema {
	names := make([]string, 0, len(in.Properties))
	for name := range in.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	s := Schema{Required: append([]string(nil), in.Required...)}
	for _, name := range names {
		s.Properties = append(s.Properties, parseProperty(name, in.Properties[name]))
	}
	return s
}

// ParseRaw parses a JSON schema document, keeping properties in the order
// they are declared.
func ParseRaw(data []byte) (Schema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Schema{}, fmt.Errorf("schema must be a JSON object")
	}

	var s Schema
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return Schema{}, err
		}
		switch key {
		case "properties":
			props, err := readOrderedProperties(dec)
			if err != nil {
				return Schema{}, err
			}
			s.Properties = props
		case "required":
			var raw any
			if err := dec.Decode(&raw); err != nil {
				return Schema{}, fmt.Errorf("failed to read required list: %w", err)
			}
			s.Required = stringList(raw)
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return Schema{}, fmt.Errorf("failed to read %q: %w", key, err)
			}
		}
	}
	return s, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v", tok)
	}
	return key, nil
}

func readOrderedProperties(dec *json.Decoder) ([]Property, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read properties: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		// "properties" that is not an object carries no usable fields.
		if ok && delim == '[' {
			if err := skipUntilClose(dec); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	var props []Property
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to read property %q: %w", name, err)
		}
		props = append(props, parseProperty(name, normalizeNumbers(value)))
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read properties: %w", err)
	}
	return props, nil
}

func skipUntilClose(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to skip value: %w", err)
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// normalizeNumbers converts json.Number values produced by UseNumber into
// float64 so parsed schemas look the same as ones decoded into map[string]any.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}

func parseProperty(name string, value any) Property {
	p := Property{Name: name}
	obj, ok := value.(map[string]any)
	if !ok {
		return p
	}
	p.Raw = obj
	p.Kind = kindOf(obj)
	p.Description, _ = obj["description"].(string)
	p.Default = obj["default"]
	p.Required, _ = obj["required"].(bool)
	if enum, ok := obj["enum"].([]any); ok {
		p.Enum = enum
	}
	p.Minimum = number(obj["minimum"])
	p.Maximum = number(obj["maximum"])
	return p
}

func kindOf(obj map[string]any) Kind {
	switch t := obj["type"].(type) {
	case string:
		return kindFromName(t)
	case []any:
		// ["string", "null"] style unions use the first non-null member.
		for _, member := range t {
			if name, ok := member.(string); ok && name != "null" {
				return kindFromName(name)
			}
		}
	}

	switch {
	case obj["enum"] != nil:
		return KindString
	case obj["properties"] != nil:
		return KindObject
	case obj["items"] != nil:
		return KindArray
	}
	return KindUnknown
}

func kindFromName(name string) Kind {
	switch name {
	case "string":
		return KindString
	case "number":
		return KindNumber
	case "integer":
		return KindInteger
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindUnknown
	}
}

func number(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
