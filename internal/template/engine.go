package template

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders Go templates with the sprig function library.
type Engine struct {
	funcs    template.FuncMap
	variable *regexp.Regexp
}

// New creates an engine. Missing keys are errors rather than "<no value>".
func New() *Engine {
	return &Engine{
		funcs:    sprig.TxtFuncMap(),
		variable: regexp.MustCompile(`\{\{-?\s*\.([a-zA-Z_][a-zA-Z0-9_]*)`),
	}
}

// Render executes text against data.
func (e *Engine) Render(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("template").
		Funcs(e.funcs).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// ExtractVariables returns the sorted top-level field names text references
// as {{ .name }}.
func (e *Engine) ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	for _, m := range e.variable.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = true
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MissingVariables lists the variables text references that data lacks.
func (e *Engine) MissingVariables(text string, data map[string]any) []string {
	var missing []string
	for _, name := range e.ExtractVariables(text) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
