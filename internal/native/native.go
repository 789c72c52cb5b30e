package native

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/llm"
	"toolhub/internal/schema"
	"toolhub/internal/template"
)

// Category ids of the native capabilities.
const (
	CategoryText = "text"
	CategoryData = "data"
	CategoryAI   = "ai"
)

// LLMProvider is the dependency name llm.invoke requires.
const LLMProvider = "llm"

var validate = validator.New()

var categories = []capability.Category{
	{ID: CategoryText, Label: "Text", Icon: "type", Order: 100, DefaultExpanded: true},
	{ID: CategoryData, Label: "Data", Icon: "database", Order: 200},
	{ID: CategoryAI, Label: "AI", Icon: "sparkles", Order: 300},
}

type spec struct {
	Type         string
	Category     string
	Label        string
	Description  string
	Icon         string
	Runtime      capability.Runtime
	Requirements *capability.Requirements
}

// define builds a capability whose arguments decode into Args. The config
// schema is reflected from Args and the executor validates before running.
func define[Args any](s spec, run func(ctx context.Context, args Args) (map[string]any, error)) (capability.Definition, error) {
	var zero Args
	reflected, err := schema.FromStruct(&zero)
	if err != nil {
		return capability.Definition{}, fmt.Errorf("failed to reflect arguments of %s: %w", s.Type, err)
	}
	translation := schema.Translate(reflected)
	fields := translation.Fields

	runtime := s.Runtime
	if runtime == "" {
		runtime = capability.RuntimeNative
	}

	return capability.Definition{
		Type:         s.Type,
		Category:     s.Category,
		Label:        s.Label,
		Description:  s.Description,
		Icon:         s.Icon,
		Color:        schema.CategoryColor(s.Category),
		Ports:        translation.Ports,
		ConfigSchema: fields,
		Runtime:      runtime,
		Requirements: s.Requirements,
		Executor: capability.ExecutorFunc(func(ctx context.Context, inputs, config map[string]any) (any, error) {
			var args Args
			if err := decode(schema.BuildArguments(fields, inputs, config), &args); err != nil {
				return nil, err
			}
			return run(ctx, args)
		}),
	}, nil
}

func decode(raw map[string]any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return api.Wrap(api.CodeInvalidParams, err, "failed to encode arguments")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return api.Wrap(api.CodeInvalidParams, err, "invalid arguments")
	}
	if err := validate.Struct(out); err != nil {
		return api.Wrap(api.CodeInvalidParams, err, "invalid arguments")
	}
	return nil
}

// Definitions returns the native capabilities. client backs llm.invoke; it
// may be nil, in which case the capability reports the llm dependency as
// unavailable through the adapter's dependency check.
func Definitions(client llm.Client) ([]capability.Definition, error) {
	engine := template.New()

	builders := []func() (capability.Definition, error){
		func() (capability.Definition, error) { return textTemplate(engine) },
		textChunk,
		jsonExtract,
		func() (capability.Definition, error) { return llmInvoke(client) },
	}

	defs := make([]capability.Definition, 0, len(builders))
	for _, build := range builders {
		def, err := build()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Register adds the native categories and capabilities to r.
func Register(r *capability.Registry, client llm.Client) error {
	defs, err := Definitions(client)
	if err != nil {
		return err
	}
	for _, c := range categories {
		r.RegisterCategory(c)
	}
	r.RegisterAll(defs)
	return nil
}
