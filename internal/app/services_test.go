package app

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolhub/internal/api"
	"toolhub/internal/config"
	"toolhub/internal/events"
	"toolhub/internal/llm"
	"toolhub/internal/plugin"
	"toolhub/internal/protocol"
	"toolhub/internal/tracing"
	"toolhub/pkg/logging"
)

func newTestServices(t *testing.T, cfg config.Config, opts ...ServiceOption) *Services {
	t.Helper()
	dir := t.TempDir()
	opts = append([]ServiceOption{
		WithStore(plugin.NewMemoryStore()),
		WithTracing(tracing.Noop()),
	}, opts...)
	s, err := InitializeServices(context.Background(), cfg, dir, "test", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestInitializeServices(t *testing.T) {
	s := newTestServices(t, config.Default())

	for _, capType := range []string{"text.template", "text.chunk", "json.extract", "llm.invoke"} {
		_, ok := s.Registry.Get(capType)
		assert.True(t, ok, capType)
	}
	assert.Nil(t, s.LLM)
	assert.Contains(t, s.Bridge.Tools(), "text_chunk")

	var uris []string
	for _, r := range s.RPC.Resources() {
		uris = append(uris, r.URI)
	}
	for _, uri := range []string{protocol.URIPlugins, protocol.URIWorkflows, protocol.URIPersonas, protocol.URIConfig} {
		assert.Contains(t, uris, uri)
	}
}

func TestInitializeServices_LLMDependency(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		s := newTestServices(t, config.Default())
		res := s.Adapter.Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi"})
		require.False(t, res.Success)
		assert.Equal(t, api.CodeDependencyUnavailable, res.Error.Code)
	})

	t.Run("configured", func(t *testing.T) {
		client := llm.ClientFunc(func(_ context.Context, prompt, _ string, _ llm.Params) (*llm.Response, error) {
			return &llm.Response{Text: "re: " + prompt}, nil
		})
		s := newTestServices(t, config.Default(), WithLLMClient(client))
		res := s.Adapter.Invoke(context.Background(), "llm.invoke", nil, map[string]any{"prompt": "hi"})
		require.True(t, res.Success, "%+v", res.Error)
		assert.Equal(t, "re: hi", res.Outputs["text"])
	})
}

func TestInitializeServices_UnknownPluginDependency(t *testing.T) {
	s := newTestServices(t, config.Default())
	assert.False(t, s.dependencyAvailable("missing-plugin"))
}

func TestConfigResource_Redacted(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Token = "s3cret"
	cfg.LLM = config.LLMConfig{Endpoint: "https://example.openai.azure.com", APIKey: "key", Deployment: "gpt"}
	client := llm.ClientFunc(func(context.Context, string, string, llm.Params) (*llm.Response, error) {
		return &llm.Response{}, nil
	})
	s := newTestServices(t, cfg, WithLLMClient(client))

	v, err := s.RPC.ReadResource(context.Background(), protocol.URIConfig)
	require.NoError(t, err)
	got, ok := v.(config.Config)
	require.True(t, ok)
	assert.Equal(t, config.Redaction, got.Server.Token)
	assert.Equal(t, config.Redaction, got.LLM.APIKey)
	assert.Equal(t, "gpt", got.LLM.Deployment)
}

func TestStorageResources(t *testing.T) {
	s := newTestServices(t, config.Default())
	require.NoError(t, s.Storage.Save(config.KindWorkflows, "deploy", []byte("name: deploy\nsteps: []\n")))

	v, err := s.RPC.ReadResource(context.Background(), protocol.URIWorkflows)
	require.NoError(t, err)
	docs, ok := v.([]map[string]any)
	require.True(t, ok)
	require.Len(t, docs, 1)
	assert.Equal(t, "deploy", docs[0]["name"])

	v, err = s.RPC.ReadResource(context.Background(), protocol.URIPlugins)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestApplyConfig(t *testing.T) {
	s := newTestServices(t, config.Default())
	require.Contains(t, s.Bridge.Tools(), "llm_invoke")

	cfg := config.Default()
	cfg.AllowedCategories = []string{"text"}
	s.ApplyConfig(cfg)

	assert.Equal(t, []string{"text"}, s.Config().AllowedCategories)
	assert.True(t, s.RPC.IsCategoryAllowed("text"))
	assert.False(t, s.RPC.IsCategoryAllowed("ai"))
	assert.NotContains(t, s.Bridge.Tools(), "llm_invoke")
	assert.Contains(t, s.Bridge.Tools(), "text_template")
}

func TestFollowPluginEvents(t *testing.T) {
	s := newTestServices(t, config.Default())

	var buf bytes.Buffer
	logging.InitForCLI(logging.LevelInfo, &buf)
	t.Cleanup(func() { logging.InitForCLI(logging.LevelInfo, io.Discard) })

	ch := make(chan events.PluginEvent, 2)
	ch <- events.PluginEvent{Type: events.PluginStarted, PluginID: "github", Tools: []string{"search", "issues"}}
	ch <- events.PluginEvent{Type: events.PluginError, PluginID: "weather", Error: "exit status 1"}
	close(ch)

	s.followPluginEvents(ch)

	out := buf.String()
	assert.Contains(t, out, "Plugin github started (2 tools)")
	assert.Contains(t, out, "Plugin weather failed: exit status 1")
}
