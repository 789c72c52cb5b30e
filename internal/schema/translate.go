package schema

import (
	"fmt"
	"strings"

	"toolhub/internal/capability"
)

// Names of the convenience ports added to every translated capability.
const (
	PortInput  = "input"
	PortData   = "data"
	PortResult = "result"
	PortText   = "text"
)

var textareaKeys = map[string]bool{
	"prompt":  true,
	"content": true,
	"body":    true,
}

// Translation is the internal model derived from an input schema.
type Translation struct {
	Fields []capability.ConfigField
	Ports  capability.Ports
}

// Translate converts a schema into config fields and ports. It is total: a
// schema without properties yields no fields and only the convenience ports.
//
// A property is required when it is listed in the top-level required array
// or declares required: true itself. Both signals are honored.
func Translate(s Schema) Translation {
	t := Translation{
		Fields: make([]capability.ConfigField, 0, len(s.Properties)),
		Ports: capability.Ports{
			Inputs: make([]capability.PortDefinition, 0, len(s.Properties)+2),
		},
	}

	declared := make(map[string]bool, len(s.Properties))
	for _, p := range s.Properties {
		required := s.IsRequired(p)
		t.Fields = append(t.Fields, fieldFor(p, required))
		t.Ports.Inputs = append(t.Ports.Inputs, portFor(p, required))
		declared[p.Name] = true
	}

	if !declared[PortInput] {
		t.Ports.Inputs = append(t.Ports.Inputs, capability.PortDefinition{
			Name:        PortInput,
			Type:        capability.PortText,
			Description: "Text routed to the first required text parameter",
		})
	}
	if !declared[PortData] {
		t.Ports.Inputs = append(t.Ports.Inputs, capability.PortDefinition{
			Name:        PortData,
			Type:        capability.PortJSON,
			Description: "Object merged into the parameters",
		})
	}

	t.Ports.Outputs = []capability.PortDefinition{
		{Name: PortResult, Type: capability.PortJSON},
		{Name: PortText, Type: capability.PortText},
	}
	return t
}

func fieldFor(p Property, required bool) capability.ConfigField {
	f := capability.ConfigField{
		Key:         p.Name,
		Label:       Humanize(p.Name),
		Type:        fieldType(p),
		Required:    required,
		Default:     p.Default,
		Description: p.Description,
		Min:         p.Minimum,
		Max:         p.Maximum,
	}
	if len(p.Enum) > 0 {
		f.Type = capability.FieldSelect
		f.Options = make([]capability.Option, 0, len(p.Enum))
		for _, v := range p.Enum {
			f.Options = append(f.Options, capability.Option{Value: v, Label: fmt.Sprint(v)})
		}
	}
	if f.Label == "" {
		f.Label = p.Name
	}
	return f
}

func fieldType(p Property) capability.FieldType {
	switch p.Kind {
	case KindNumber, KindInteger:
		return capability.FieldNumber
	case KindBoolean:
		return capability.FieldToggle
	case KindArray, KindObject:
		return capability.FieldJSON
	case KindString, KindUnknown:
		if isMultiline(p) {
			return capability.FieldTextarea
		}
		return capability.FieldText
	}
	return capability.FieldText
}

func isMultiline(p Property) bool {
	if textareaKeys[strings.ToLower(p.Name)] {
		return true
	}
	d := strings.ToLower(p.Description)
	return strings.Contains(d, "multi-line") ||
		strings.Contains(d, "multiline") ||
		strings.Contains(d, "multiple lines")
}

func portFor(p Property, required bool) capability.PortDefinition {
	port := capability.PortDefinition{
		Name:        p.Name,
		Type:        PortKindOf(p.Kind),
		Required:    required,
		Description: p.Description,
		Default:     p.Default,
	}
	if p.Kind == KindArray || p.Kind == KindObject {
		port.Schema = p.Raw
	}
	return port
}

// PortKindOf maps a schema kind to the coarser port kind.
func PortKindOf(k Kind) capability.PortKind {
	switch k {
	case KindString:
		return capability.PortText
	case KindNumber, KindInteger:
		return capability.PortNumber
	case KindBoolean:
		return capability.PortBoolean
	case KindArray, KindObject:
		return capability.PortJSON
	default:
		return capability.PortAny
	}
}
