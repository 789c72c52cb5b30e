package plugin

import "time"

// Status is the lifecycle state of an installed plugin.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
	StatusError     Status = "error"
)

// SourceType identifies where a plugin was installed from.
type SourceType string

const (
	SourceGitHub SourceType = "github"
	SourceNPM    SourceType = "npm"
	SourceLocal  SourceType = "local"
	SourceRemote SourceType = "remote"
)

// Runtime is the execution environment of a plugin's provider process.
type Runtime string

const (
	RuntimeNode   Runtime = "node"
	RuntimePython Runtime = "python"
	RuntimeRust   Runtime = "rust"
	RuntimeDocker Runtime = "docker"
	RuntimeBinary Runtime = "binary"
	RuntimeRemote Runtime = "remote"
)

// Source describes where a plugin came from.
type Source struct {
	Type SourceType `json:"type" yaml:"type"`
	URL  string     `json:"url" yaml:"url"`
}

// Manifest is the persisted record of an installed plugin.
type Manifest struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string            `json:"category" yaml:"category"`
	Source      Source            `json:"source" yaml:"source"`
	Runtime     Runtime           `json:"runtime" yaml:"runtime"`
	Entry       string            `json:"entry,omitempty" yaml:"entry,omitempty"`
	Args        []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Status      Status            `json:"status" yaml:"status"`
	InstalledAt time.Time         `json:"installedAt" yaml:"installedAt"`
	InstallPath string            `json:"installPath,omitempty" yaml:"installPath,omitempty"`
	// ToolsDiscovered lists the capability type keys the plugin currently owns.
	ToolsDiscovered []string `json:"toolsDiscovered" yaml:"toolsDiscovered"`
	Error           string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func (m Manifest) clone() Manifest {
	out := m
	out.Args = append([]string(nil), m.Args...)
	out.ToolsDiscovered = append([]string(nil), m.ToolsDiscovered...)
	if m.Env != nil {
		out.Env = make(map[string]string, len(m.Env))
		for k, v := range m.Env {
			out.Env[k] = v
		}
	}
	return out
}

// InstallRequest asks the manager to install a plugin. Source is a GitHub
// URL, an "npm:" or "npx:" package, an http(s) MCP endpoint, or a local path.
type InstallRequest struct {
	Source   string            `json:"source" validate:"required"`
	Name     string            `json:"name,omitempty" validate:"omitempty,max=128"`
	Runtime  Runtime           `json:"runtime,omitempty" validate:"omitempty,oneof=node python rust docker binary remote"`
	Category string            `json:"category,omitempty" validate:"omitempty,max=64"`
	Env      map[string]string `json:"env,omitempty"`
}

// Available is an entry of the recommended plugin catalog.
type Available struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Runtime     Runtime `json:"runtime"`
	Category    string  `json:"category"`
	Installed   bool    `json:"installed"`
}
