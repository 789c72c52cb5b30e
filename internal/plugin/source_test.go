package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		raw      string
		name     string
		wantType SourceType
		wantURL  string
		wantName string
	}{
		{raw: "https://github.com/modelcontextprotocol/servers/tree/main/src/memory", wantType: SourceGitHub,
			wantURL: "https://github.com/modelcontextprotocol/servers/tree/main/src/memory", wantName: "memory"},
		{raw: "https://github.com/acme/tool.git", wantType: SourceGitHub, wantURL: "https://github.com/acme/tool.git", wantName: "tool"},
		{raw: "npm:@modelcontextprotocol/server-slack", wantType: SourceNPM, wantURL: "@modelcontextprotocol/server-slack",
			wantName: "@modelcontextprotocol/server-slack"},
		{raw: "npx:mcp-weather", name: "weather", wantType: SourceNPM, wantURL: "mcp-weather", wantName: "weather"},
		{raw: "https://mcp.example.com/v1", wantType: SourceRemote, wantURL: "https://mcp.example.com/v1", wantName: "mcp.example.com"},
		{raw: "/home/me/plugins/notes/", wantType: SourceLocal, wantURL: "/home/me/plugins/notes/", wantName: "notes"},
		{raw: "  ./tools  ", wantType: SourceLocal, wantURL: "./tools", wantName: "tools"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			src, name := DetectSource(tt.raw, tt.name)
			assert.Equal(t, tt.wantType, src.Type)
			assert.Equal(t, tt.wantURL, src.URL)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "modelcontextprotocolserver-slack", SanitizeID("@modelcontextprotocol/server-slack"))
	assert.Equal(t, "mcpexamplecom", SanitizeID("mcp.example.com"))
	assert.Equal(t, "my_tool-2", SanitizeID("My_Tool-2"))
	assert.Empty(t, SanitizeID("!!!"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		marker string
		want   Runtime
	}{
		{"package.json", RuntimeNode},
		{"pyproject.toml", RuntimePython},
		{"setup.py", RuntimePython},
		{"requirements.txt", RuntimePython},
		{"Cargo.toml", RuntimeRust},
		{"Dockerfile", RuntimeDocker},
		{"README.md", RuntimeNode},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.marker, "")
			assert.Equal(t, tt.want, DetectRuntime(dir))
		})
	}
}

func TestDetectEntry(t *testing.T) {
	t.Run("node main", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"main": "build/server.js"}`)
		cmd, args := DetectEntry(dir, "x", RuntimeNode, Source{Type: SourceLocal})
		assert.Equal(t, "node", cmd)
		assert.Equal(t, []string{filepath.Join(dir, "build/server.js")}, args)
	})

	t.Run("node dist fallback", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "dist/index.js", "")
		_, args := DetectEntry(dir, "x", RuntimeNode, Source{Type: SourceLocal})
		assert.Equal(t, []string{filepath.Join(dir, "dist", "index.js")}, args)
	})

	t.Run("python module fallback", func(t *testing.T) {
		cmd, args := DetectEntry(t.TempDir(), "x", RuntimePython, Source{Type: SourceLocal})
		assert.Equal(t, "python", cmd)
		assert.Equal(t, []string{"-m", "server"}, args)
	})

	t.Run("npm package runs through npx", func(t *testing.T) {
		cmd, args := DetectEntry(t.TempDir(), "x", RuntimeNode, Source{Type: SourceNPM, URL: "mcp-weather"})
		assert.Equal(t, "npx", cmd)
		assert.Equal(t, []string{"-y", "mcp-weather"}, args)
	})

	t.Run("remote has no entry", func(t *testing.T) {
		cmd, args := DetectEntry("", "x", RuntimeRemote, Source{Type: SourceRemote})
		assert.Empty(t, cmd)
		assert.Nil(t, args)
	})
}

type recordedCommand struct {
	dir  string
	name string
	args []string
}

func fakeRunner(calls *[]recordedCommand, err error) func(context.Context, string, string, ...string) ([]byte, error) {
	return func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCommand{dir: dir, name: name, args: args})
		if err != nil {
			return []byte("fatal: repository not found"), err
		}
		return nil, nil
	}
}

func TestCommandInstaller_Fetch(t *testing.T) {
	t.Run("github clones shallow", func(t *testing.T) {
		var calls []recordedCommand
		inst := &CommandInstaller{run: fakeRunner(&calls, nil)}
		dest := filepath.Join(t.TempDir(), "plugins", "tool")

		require.NoError(t, inst.Fetch(context.Background(), Source{Type: SourceGitHub, URL: "https://github.com/acme/tool"}, dest))
		require.Len(t, calls, 1)
		assert.Equal(t, "git", calls[0].name)
		assert.Equal(t, []string{"clone", "--depth", "1", "--", "https://github.com/acme/tool", dest}, calls[0].args)
	})

	t.Run("dash-prefixed url stays positional", func(t *testing.T) {
		var calls []recordedCommand
		inst := &CommandInstaller{run: fakeRunner(&calls, nil)}
		dest := filepath.Join(t.TempDir(), "plugins", "tool")
		url := "--upload-pack=touch /tmp/pwned"

		require.NoError(t, inst.Fetch(context.Background(), Source{Type: SourceGitHub, URL: url}, dest))
		require.Len(t, calls, 1)
		args := calls[0].args
		sep := slices.Index(args, "--")
		require.NotEqual(t, -1, sep)
		assert.Equal(t, []string{url, dest}, args[sep+1:])
	})

	t.Run("git failure carries output", func(t *testing.T) {
		var calls []recordedCommand
		inst := &CommandInstaller{run: fakeRunner(&calls, errors.New("exit status 128"))}
		err := inst.Fetch(context.Background(), Source{Type: SourceGitHub, URL: "https://github.com/acme/nope"}, filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repository not found")
	})

	t.Run("npm installs into dest", func(t *testing.T) {
		var calls []recordedCommand
		inst := &CommandInstaller{run: fakeRunner(&calls, nil)}
		dest := filepath.Join(t.TempDir(), "weather")

		require.NoError(t, inst.Fetch(context.Background(), Source{Type: SourceNPM, URL: "mcp-weather"}, dest))
		require.Len(t, calls, 1)
		assert.Equal(t, dest, calls[0].dir)
		assert.Equal(t, []string{"install", "mcp-weather"}, calls[0].args)
		assert.DirExists(t, dest)
	})

	t.Run("remote fetches nothing", func(t *testing.T) {
		var calls []recordedCommand
		inst := &CommandInstaller{run: fakeRunner(&calls, nil)}
		require.NoError(t, inst.Fetch(context.Background(), Source{Type: SourceRemote, URL: "https://x"}, ""))
		assert.Empty(t, calls)
	})

	t.Run("local path is linked and unlinked", func(t *testing.T) {
		src := t.TempDir()
		writeFile(t, src, "package.json", `{}`)
		dest := filepath.Join(t.TempDir(), "plugins", "local")

		inst := NewCommandInstaller()
		require.NoError(t, inst.Fetch(context.Background(), Source{Type: SourceLocal, URL: src}, dest))

		fi, err := os.Lstat(dest)
		require.NoError(t, err)
		assert.NotZero(t, fi.Mode()&os.ModeSymlink)

		require.NoError(t, inst.Remove(Manifest{InstallPath: dest}))
		_, err = os.Lstat(dest)
		assert.True(t, os.IsNotExist(err))
		assert.FileExists(t, filepath.Join(src, "package.json"), "removing a link keeps the source")
	})

	t.Run("missing local path", func(t *testing.T) {
		err := NewCommandInstaller().Fetch(context.Background(), Source{Type: SourceLocal, URL: "/definitely/not/here"}, filepath.Join(t.TempDir(), "x"))
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "does not exist"))
	})
}

func TestCommandInstaller_Build(t *testing.T) {
	var calls []recordedCommand
	inst := &CommandInstaller{run: fakeRunner(&calls, nil)}

	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"scripts": {"build": "tsc"}}`)
	require.NoError(t, inst.Build(context.Background(), dir, RuntimeNode))
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"install"}, calls[0].args)
	assert.Equal(t, []string{"run", "build"}, calls[1].args)

	calls = nil
	require.NoError(t, inst.Build(context.Background(), t.TempDir(), RuntimePython))
	assert.Empty(t, calls, "no requirements.txt, nothing to install")
}

func TestCommandInstaller_RemoveDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cloned")
	writeFile(t, dir, "index.js", "")

	require.NoError(t, NewCommandInstaller().Remove(Manifest{InstallPath: dir}))
	assert.NoDirExists(t, dir)
	require.NoError(t, NewCommandInstaller().Remove(Manifest{InstallPath: dir}), "missing path is not an error")
	require.NoError(t, NewCommandInstaller().Remove(Manifest{}))
}
