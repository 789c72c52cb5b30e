package capability

import (
	"context"
)

// Runtime tags how a capability executes.
type Runtime string

const (
	RuntimeNative Runtime = "native"
	RuntimeMCP    Runtime = "mcp"
	RuntimeLLM    Runtime = "llm"
)

// FieldType is the UI kind of a configuration field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldToggle   FieldType = "toggle"
	FieldSelect   FieldType = "select"
	FieldJSON     FieldType = "json"
	FieldFile     FieldType = "file"
)

// Executor runs a capability. Implementations may return any value; the
// execution adapter normalizes it into an envelope.
type Executor interface {
	Execute(ctx context.Context, inputs, config map[string]any) (any, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inputs, config map[string]any) (any, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, inputs, config map[string]any) (any, error) {
	return f(ctx, inputs, config)
}

// PortDefinition is a typed input or output slot.
type PortDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Type        PortKind       `json:"type" yaml:"type"`
	Required    bool           `json:"required,omitempty" yaml:"required,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any            `json:"default,omitempty" yaml:"default,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Ports holds the ordered inputs and outputs of a capability.
type Ports struct {
	Inputs  []PortDefinition `json:"inputs" yaml:"inputs"`
	Outputs []PortDefinition `json:"outputs" yaml:"outputs"`
}

// Option is one choice of a select field. Value keeps the enum member as
// declared, so numeric and boolean choices reach providers with their type.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Condition makes a config field visible only when another field has a value.
type Condition struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// ConfigField describes one configurable parameter of a capability.
type ConfigField struct {
	Key         string     `json:"key" yaml:"key"`
	Label       string     `json:"label" yaml:"label"`
	Type        FieldType  `json:"type" yaml:"type"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any        `json:"default,omitempty" yaml:"default,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Options     []Option   `json:"options,omitempty" yaml:"options,omitempty"`
	Min         *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64   `json:"step,omitempty" yaml:"step,omitempty"`
	ShowWhen    *Condition `json:"showWhen,omitempty" yaml:"showWhen,omitempty"`
}

// Requirements names external dependencies that must be available before a
// capability can be invoked.
type Requirements struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// Definition is a registered capability.
type Definition struct {
	Type         string        `json:"type" yaml:"type"`
	Category     string        `json:"category" yaml:"category"`
	Subcategory  string        `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Label        string        `json:"label" yaml:"label"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Icon         string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color        string        `json:"color,omitempty" yaml:"color,omitempty"`
	Tags         []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Ports        Ports         `json:"ports" yaml:"ports"`
	ConfigSchema []ConfigField `json:"configSchema" yaml:"configSchema"`
	Runtime      Runtime       `json:"runtime" yaml:"runtime"`
	Requirements *Requirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	// PluginOwner is the id of the plugin that registered this capability.
	PluginOwner string `json:"pluginOwner,omitempty" yaml:"pluginOwner,omitempty"`

	Executor Executor `json:"-" yaml:"-"`
}

// clone returns a copy that shares no slices with d. Default and Schema
// values are shared; they are treated as immutable after registration.
func (d Definition) clone() Definition {
	out := d
	out.Tags = append([]string(nil), d.Tags...)
	out.Ports.Inputs = append([]PortDefinition(nil), d.Ports.Inputs...)
	out.Ports.Outputs = append([]PortDefinition(nil), d.Ports.Outputs...)
	out.ConfigSchema = make([]ConfigField, len(d.ConfigSchema))
	for i, f := range d.ConfigSchema {
		f.Options = append([]Option(nil), f.Options...)
		out.ConfigSchema[i] = f
	}
	if d.Requirements != nil {
		req := *d.Requirements
		out.Requirements = &req
	}
	return out
}

// Category groups capabilities in the catalog.
type Category struct {
	ID              string `json:"id" yaml:"id"`
	Label           string `json:"label" yaml:"label"`
	Icon            string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Order           int    `json:"order" yaml:"order"`
	DefaultExpanded bool   `json:"defaultExpanded" yaml:"defaultExpanded"`
}

// ChangeKind identifies the mutation a Change describes.
type ChangeKind string

const (
	ChangeRegistered         ChangeKind = "registered"
	ChangeUnregistered       ChangeKind = "unregistered"
	ChangeCategoryRegistered ChangeKind = "category_registered"
)

// Change is delivered to registry subscribers after a mutation is applied.
type Change struct {
	Kind ChangeKind
	// Types lists the affected capability type keys (or the category id).
	Types []string
	// Revision increases by one with every applied mutation.
	Revision uint64
}

// Group is one category with its capabilities, as returned by
// Registry.GetGroupedByCategory.
type Group struct {
	Category     Category     `json:"category"`
	Capabilities []Definition `json:"capabilities"`
}
