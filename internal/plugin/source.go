package plugin

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// DetectSource classifies a raw install source and derives the plugin name.
// An explicit name wins over the derived one.
func DetectSource(raw, name string) (Source, string) {
	raw = strings.TrimSpace(raw)

	var (
		src     Source
		derived string
	)
	switch {
	case strings.Contains(raw, "github.com"):
		src = Source{Type: SourceGitHub, URL: raw}
		derived = strings.TrimSuffix(lastSegment(raw), ".git")
	case strings.HasPrefix(raw, "npm:") || strings.HasPrefix(raw, "npx:"):
		pkg := raw[4:]
		src = Source{Type: SourceNPM, URL: pkg}
		derived = pkg
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		src = Source{Type: SourceRemote, URL: raw}
		if u, err := url.Parse(raw); err == nil {
			derived = u.Hostname()
		}
	default:
		src = Source{Type: SourceLocal, URL: raw}
		derived = filepath.Base(filepath.Clean(raw))
		if derived == "." || derived == string(filepath.Separator) {
			derived = "local-plugin"
		}
	}

	if name == "" {
		name = derived
	}
	return src, name
}

func lastSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// SanitizeID lowercases name and keeps only letters, digits, '-' and '_'.
func SanitizeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// DetectRuntime infers the runtime of an installed plugin from marker files.
// Node is the fallback.
func DetectRuntime(dir string) Runtime {
	switch {
	case exists(dir, "package.json"):
		return RuntimeNode
	case exists(dir, "pyproject.toml"), exists(dir, "setup.py"), exists(dir, "requirements.txt"):
		return RuntimePython
	case exists(dir, "Cargo.toml"):
		return RuntimeRust
	case exists(dir, "Dockerfile"):
		return RuntimeDocker
	default:
		return RuntimeNode
	}
}

type packageInfo struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Main        string            `json:"main"`
	Scripts     map[string]string `json:"scripts"`
}

func readPackageJSON(dir string) (packageInfo, bool) {
	var info packageInfo
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return info, false
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, false
	}
	return info, true
}

// DetectEntry returns the command and arguments that launch the provider.
// Remote plugins have no entry.
func DetectEntry(dir, id string, rt Runtime, src Source) (string, []string) {
	if src.Type == SourceNPM {
		return "npx", []string{"-y", src.URL}
	}

	switch rt {
	case RuntimeRemote:
		return "", nil
	case RuntimeNode:
		if info, ok := readPackageJSON(dir); ok && info.Main != "" {
			return "node", []string{filepath.Join(dir, info.Main)}
		}
		if exists(dir, "dist/index.js") {
			return "node", []string{filepath.Join(dir, "dist", "index.js")}
		}
		return "node", []string{filepath.Join(dir, "index.js")}
	case RuntimePython:
		if exists(dir, "server.py") {
			return "python", []string{filepath.Join(dir, "server.py")}
		}
		return "python", []string{"-m", "server"}
	case RuntimeRust:
		return "cargo", []string{"run", "--release", "--quiet", "--manifest-path", filepath.Join(dir, "Cargo.toml")}
	case RuntimeDocker:
		return "docker", []string{"run", "-i", "--rm", "toolhub-" + id}
	case RuntimeBinary:
		return filepath.Join(dir, id), nil
	default:
		return "node", []string{"index.js"}
	}
}

func exists(dir, name string) bool {
	if dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
