package native

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"toolhub/internal/api"
	"toolhub/internal/capability"
	"toolhub/internal/executor"
	"toolhub/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newAdapter(t *testing.T, client llm.Client) (*executor.Adapter, *capability.Registry) {
	t.Helper()
	r := capability.NewRegistry()
	require.NoError(t, Register(r, client))
	return executor.NewAdapter(r), r
}

func TestRegister(t *testing.T) {
	_, r := newAdapter(t, nil)

	assert.Equal(t, 4, r.Count())
	for _, c := range categories {
		assert.True(t, r.HasCategory(c.ID))
	}

	def, ok := r.Get("llm.invoke")
	require.True(t, ok)
	assert.Equal(t, capability.RuntimeLLM, def.Runtime)
	require.NotNil(t, def.Requirements)
	assert.Equal(t, LLMProvider, def.Requirements.Provider)

	def, ok = r.Get("text.chunk")
	require.True(t, ok)
	assert.Equal(t, capability.RuntimeNative, def.Runtime)
	var keys []string
	for _, f := range def.ConfigSchema {
		keys = append(keys, f.Key)
		if f.Key == "text" {
			assert.True(t, f.Required)
			assert.Equal(t, "Text to split", f.Description)
		}
		if f.Key == "size" {
			assert.False(t, f.Required)
			assert.Equal(t, capability.FieldNumber, f.Type)
		}
	}
	assert.Equal(t, []string{"text", "size", "overlap"}, keys)
}

func TestTextTemplate(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "text.template", nil, map[string]any{
		"template": "{{ .who | upper }} uses {{ .tool }}",
		"data":     map[string]any{"who": "ops", "tool": "toolhub"},
	})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "OPS uses toolhub", res.Outputs["text"])

	res = a.Invoke(context.Background(), "text.template", nil, map[string]any{"template": "{{ .missing }}"})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)

	res = a.Invoke(context.Background(), "text.template", nil, nil)
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)
}

func TestTextTemplate_MissingVariablesAreNamed(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "text.template", nil, map[string]any{
		"template": "{{ .greeting }}, {{ .who }} from {{ .team }}",
		"data":     map[string]any{"who": "ops"},
	})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)
	assert.Contains(t, res.Error.Message, "missing template variables: greeting, team")
}

func TestTextTemplate_DefaultsFillGaps(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "text.template", nil, map[string]any{
		"template": "{{ .greeting }}, {{ .who }}",
		"data":     map[string]any{"who": "ops"},
		"defaults": map[string]any{"greeting": "hello", "who": "nobody"},
	})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "hello, ops", res.Outputs["text"])
}

func TestTextTemplate_InputPortFillsTemplate(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "text.template",
		map[string]any{"input": "static {{ 1 | add 1 }}"}, nil)
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "static 2", res.Outputs["text"])
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		size, overlap int
		want          []string
	}{
		{name: "empty", text: "", size: 3, want: []string{}},
		{name: "fits", text: "abc", size: 3, want: []string{"abc"}},
		{name: "no overlap", text: "abcdefg", size: 3, want: []string{"abc", "def", "g"}},
		{name: "overlap", text: "abcdefgh", size: 4, overlap: 2, want: []string{"abcd", "cdef", "efgh"}},
		{name: "runes", text: "héllo wörld", size: 6, want: []string{"héllo ", "wörld"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestTextChunkCapability(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "text.chunk", nil, map[string]any{"text": "abcdef", "size": 2})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, []string{"ab", "cd", "ef"}, res.Outputs["chunks"])
	assert.Equal(t, 3, res.Outputs["count"])

	res = a.Invoke(context.Background(), "text.chunk", nil, map[string]any{"text": "abcdef", "size": 2, "overlap": 2})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)

	res = a.Invoke(context.Background(), "text.chunk", nil, map[string]any{"text": "abcdef", "size": -1})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)
}

func TestExtract(t *testing.T) {
	data := map[string]any{
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
		"count": 2.0,
	}

	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{path: "items.1.name", want: "second", found: true},
		{path: "count", want: 2.0, found: true},
		{path: "", want: data, found: true},
		{path: "items.5.name", found: false},
		{path: "items.x", found: false},
		{path: "count.deeper", found: false},
		{path: "absent", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := Extract(data, tt.path)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestJSONExtractCapability(t *testing.T) {
	a, _ := newAdapter(t, nil)

	res := a.Invoke(context.Background(), "json.extract", nil, map[string]any{
		"data": `{"repo": {"stars": 42}}`,
		"path": "repo.stars",
	})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, 42.0, res.Outputs["value"])
	assert.Equal(t, true, res.Outputs["found"])

	res = a.Invoke(context.Background(), "json.extract",
		map[string]any{"data": map[string]any{"a": "b"}},
		map[string]any{"path": "a"})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "b", res.Outputs["value"])

	res = a.Invoke(context.Background(), "json.extract", nil, map[string]any{"data": "{}"})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)
}

func TestLLMInvoke(t *testing.T) {
	var gotSystem string
	client := llm.ClientFunc(func(_ context.Context, prompt, system string, params llm.Params) (*llm.Response, error) {
		gotSystem = system
		assert.Equal(t, 100, params.MaxTokens)
		return &llm.Response{Text: "echo: " + prompt, Usage: llm.Usage{TotalTokens: 7}}, nil
	})
	a, _ := newAdapter(t, client)

	res := a.Invoke(context.Background(), "llm.invoke", nil, map[string]any{
		"prompt":       "hi",
		"systemPrompt": "be brief",
		"maxTokens":    100,
	})
	require.True(t, res.Success, "%+v", res.Error)
	assert.Equal(t, "echo: hi", res.Outputs["text"])
	assert.Equal(t, llm.Usage{TotalTokens: 7}, res.Outputs["usage"])
	assert.Equal(t, "be brief", gotSystem)

	res = a.Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi", "temperature": 3})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvalidParams, res.Error.Code)
}

func TestLLMInvoke_Unavailable(t *testing.T) {
	r := capability.NewRegistry()
	require.NoError(t, Register(r, nil))

	unavailable := executor.NewAdapter(r, executor.WithDependencyChecker(
		executor.DependencyCheckerFunc(func(string) bool { return false }),
	))
	res := unavailable.Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi"})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeDependencyUnavailable, res.Error.Code)

	// Without a dependency checker the executor still refuses.
	res = executor.NewAdapter(r).Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi"})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeDependencyUnavailable, res.Error.Code)
}

func TestLLMInvoke_ClientError(t *testing.T) {
	client := llm.ClientFunc(func(context.Context, string, string, llm.Params) (*llm.Response, error) {
		return nil, errors.New("quota exceeded")
	})
	a, _ := newAdapter(t, client)

	res := a.Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi"})
	require.False(t, res.Success)
	assert.Equal(t, api.CodeInvocationFailed, res.Error.Code)
	assert.Contains(t, res.Error.Message, "quota exceeded")
}
