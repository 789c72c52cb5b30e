package native

import (
	"context"
	"strings"
	"unicode/utf8"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/template"
)

type templateArgs struct {
	Template string         `json:"template" jsonschema:"required" jsonschema_description:"Go template, sprig functions available" validate:"required"`
	Data     map[string]any `json:"data,omitempty" jsonschema_description:"Values the template is rendered with"`
	Defaults map[string]any `json:"defaults,omitempty" jsonschema_description:"Fallback values for keys data does not set"`
}

func textTemplate(engine *template.Engine) (capability.Definition, error) {
	return define(spec{
		Type:        "text.template",
		Category:    CategoryText,
		Label:       "Template",
		Description: "Render a Go template with sprig functions",
		Icon:        "file-text",
	}, func(_ context.Context, args templateArgs) (map[string]any, error) {
		data := template.MergeContexts(args.Defaults, args.Data)
		text, err := engine.Render(args.Template, data)
		if err != nil {
			// Variables inside range or with blocks are not top-level, so
			// missing names only refine an error Render already reported.
			if missing := engine.MissingVariables(args.Template, data); len(missing) > 0 {
				return nil, api.Wrap(api.CodeInvalidParams, err, "missing template variables: %s", strings.Join(missing, ", "))
			}
			return nil, api.Wrap(api.CodeInvalidParams, err, "template failed")
		}
		return map[string]any{"text": text}, nil
	})
}

// DefaultChunkSize is used when text.chunk gets no size.
const DefaultChunkSize = 1000

type chunkArgs struct {
	Text    string `json:"text" jsonschema:"required" jsonschema_description:"Text to split" validate:"required"`
	Size    int    `json:"size,omitempty" jsonschema_description:"Characters per chunk" validate:"omitempty,min=1,max=1000000"`
	Overlap int    `json:"overlap,omitempty" jsonschema_description:"Characters shared by neighbouring chunks" validate:"min=0"`
}

func textChunk() (capability.Definition, error) {
	return define(spec{
		Type:        "text.chunk",
		Category:    CategoryText,
		Label:       "Chunk",
		Description: "Split text into overlapping chunks",
		Icon:        "scissors",
	}, func(_ context.Context, args chunkArgs) (map[string]any, error) {
		if args.Size == 0 {
			args.Size = DefaultChunkSize
		}
		if args.Overlap >= args.Size {
			return nil, api.New(api.CodeInvalidParams, "overlap %d must be smaller than size %d", args.Overlap, args.Size)
		}
		chunks := Chunk(args.Text, args.Size, args.Overlap)
		return map[string]any{"chunks": chunks, "count": len(chunks)}, nil
	})
}

// Chunk splits text into pieces of at most size runes, each starting
// size-overlap runes after the previous one. The last chunk ends the text.
func Chunk(text string, size, overlap int) []string {
	if text == "" {
		return []string{}
	}
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	runes := []rune(text)
	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
