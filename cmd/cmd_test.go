package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolhub/internal/api"
	"toolhub/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func configDirWith(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	}
	return dir
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "toolhub", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)

	for _, name := range []string{"serve", "plugin", "capabilities", "version", "workflow", "persona"} {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, found.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	original := rootCmd.Version
	defer SetVersion(original)
	SetVersion("1.2.3-test")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "toolhub version 1.2.3-test\n", out)
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestCapabilitiesList(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := configDirWith(t, "")
		out, err := execute(t, "capabilities", "list", "--config-dir", dir, "-o", "json", "--category", "")
		require.NoError(t, err)

		var defs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &defs))
		var types []string
		for _, d := range defs {
			types = append(types, d["type"].(string))
		}
		assert.Subset(t, types, []string{"text.template", "text.chunk", "json.extract", "llm.invoke"})
	})

	t.Run("allow-list applies", func(t *testing.T) {
		dir := configDirWith(t, "allowedCategories: [text]\n")
		out, err := execute(t, "capabilities", "list", "--config-dir", dir, "-o", "json", "--category", "")
		require.NoError(t, err)

		var defs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &defs))
		require.NotEmpty(t, defs)
		for _, d := range defs {
			assert.Equal(t, "text", d["category"])
		}
	})

	t.Run("category filter", func(t *testing.T) {
		dir := configDirWith(t, "")
		out, err := execute(t, "capabilities", "list", "--config-dir", dir, "-o", "table", "--category", "data")
		require.NoError(t, err)
		assert.Contains(t, out, "json.extract")
		assert.NotContains(t, out, "text.chunk")
	})

	t.Run("bad output format", func(t *testing.T) {
		dir := configDirWith(t, "")
		_, err := execute(t, "capabilities", "list", "--config-dir", dir, "-o", "xml", "--category", "")
		require.Error(t, err)
	})
}

func TestCapabilitiesSearch(t *testing.T) {
	dir := configDirWith(t, "")
	out, err := execute(t, "capabilities", "search", "chunk", "--config-dir", dir, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "text.chunk")
	assert.Contains(t, out, "Total: 1")
}

func TestPluginList_Empty(t *testing.T) {
	dir := configDirWith(t, "")
	out, err := execute(t, "plugin", "list", "--config-dir", dir, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "No plugins installed")
}

func TestPluginAvailable(t *testing.T) {
	dir := configDirWith(t, "")
	out, err := execute(t, "plugin", "available", "--config-dir", dir, "-o", "json")
	require.NoError(t, err)

	var available []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &available))
	require.NotEmpty(t, available)
	assert.Equal(t, "filesystem", available[0]["name"])
	assert.Equal(t, false, available[0]["installed"])
}

func TestPluginStart_NotFound(t *testing.T) {
	dir := configDirWith(t, "")
	_, err := execute(t, "plugin", "start", "ghost", "--config-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCodeNotFound, getExitCode(err))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWorkflowAddAndList(t *testing.T) {
	dir := configDirWith(t, "")

	out, err := execute(t, "workflow", "list", "--config-dir", dir, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "No workflow definitions found")

	src := writeFile(t, "digest.yaml", "description: Daily digest\nsteps: [fetch, summarize]\n")
	out, err = execute(t, "workflow", "add", src, "--name", "daily digest", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "workflow daily digest")
	assert.FileExists(t, filepath.Join(dir, config.KindWorkflows, "daily_digest.yaml"))

	out, err = execute(t, "workflow", "list", "--config-dir", dir, "-o", "json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"daily_digest"}, names)
}

func TestPersonaAdd(t *testing.T) {
	dir := configDirWith(t, "")

	_, err := execute(t, "persona", "add", writeFile(t, "broken.yaml", "- just\n- a list\n"), "--config-dir", dir)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, config.KindPersonas, "broken.yaml"))

	_, err = execute(t, "persona", "add", writeFile(t, "reviewer.yml", "prompt: Review carefully\n"), "--config-dir", dir)
	require.NoError(t, err)

	out, err := execute(t, "persona", "list", "--config-dir", dir, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewer")
	assert.Contains(t, out, "Total: 1")
}

func TestInvalidConfig(t *testing.T) {
	dir := configDirWith(t, "server:\n  port: 70000\n")
	_, err := execute(t, "plugin", "list", "--config-dir", dir, "-o", "table")
	require.Error(t, err)
	assert.Equal(t, ExitCodeInvalidConfig, getExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plugin not found", api.NewPluginNotFoundError("x"), ExitCodeNotFound},
		{"wrapped capability not found", fmt.Errorf("call: %w", api.NewCapabilityNotFoundError("x")), ExitCodeNotFound},
		{"validation", fmt.Errorf("load: %w", config.ValidationErrors{{Field: "server.port", Message: "must be at most 65535"}}), ExitCodeInvalidConfig},
		{"other", errors.New("boom"), ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}
