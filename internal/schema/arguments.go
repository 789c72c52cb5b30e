package schema

import (
	"toolhub/internal/capability"
)

// BuildArguments assembles the parameter set for a translated capability from
// its config values and the values arriving on its input ports.
//
// Precedence, lowest first: config values, the "data" port (an object that is
// shallow-merged), ports whose name matches a field key. The "input" port then
// fills the first required text field that is still unset, or failing that
// the first unset text field.
func BuildArguments(fields []capability.ConfigField, inputs, config map[string]any) map[string]any {
	args := make(map[string]any, len(fields))
	for k, v := range config {
		args[k] = v
	}

	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Key] = true
	}

	if data, ok := inputs[PortData].(map[string]any); ok && !declared[PortData] {
		for k, v := range data {
			args[k] = v
		}
	}

	for _, f := range fields {
		if v, ok := inputs[f.Key]; ok && v != nil {
			args[f.Key] = v
		}
	}

	if text, ok := inputs[PortInput]; ok && text != nil && !declared[PortInput] {
		if key := inputTarget(fields, args); key != "" {
			args[key] = text
		}
	}
	return args
}

func inputTarget(fields []capability.ConfigField, args map[string]any) string {
	fallback := ""
	for _, f := range fields {
		if !isTextField(f) || isSet(args, f.Key) {
			continue
		}
		if f.Required {
			return f.Key
		}
		if fallback == "" {
			fallback = f.Key
		}
	}
	return fallback
}

func isTextField(f capability.ConfigField) bool {
	return f.Type == capability.FieldText || f.Type == capability.FieldTextarea
}

func isSet(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}
