package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"toolhub/pkg/logging"
)

// Installer fetches plugin artifacts and removes them again.
type Installer interface {
	// Fetch places the plugin source at dest. Remote sources fetch nothing.
	Fetch(ctx context.Context, src Source, dest string) error
	// Build runs the runtime's dependency and build steps in dir. Failures
	// are reported but a plugin may still start without them.
	Build(ctx context.Context, dir string, rt Runtime) error
	// Remove deletes the artifacts of an installed plugin.
	Remove(m Manifest) error
}

// CommandInstaller installs plugins with git, npm and symlinks.
type CommandInstaller struct {
	// run executes a command in dir and returns its combined output.
	run func(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// NewCommandInstaller returns an installer that shells out to git and npm.
func NewCommandInstaller() *CommandInstaller {
	return &CommandInstaller{run: runCommand}
}

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func (i *CommandInstaller) Fetch(ctx context.Context, src Source, dest string) error {
	switch src.Type {
	case SourceRemote:
		return nil

	case SourceGitHub:
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create plugins directory: %w", err)
		}
		out, err := i.run(ctx, "", "git", "clone", "--depth", "1", "--", src.URL, dest)
		if err != nil {
			return fmt.Errorf("git clone %s failed: %w: %s", src.URL, err, strings.TrimSpace(string(out)))
		}
		return nil

	case SourceNPM:
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("failed to create install directory: %w", err)
		}
		out, err := i.run(ctx, dest, "npm", "install", src.URL)
		if err != nil {
			return fmt.Errorf("npm install %s failed: %w: %s", src.URL, err, strings.TrimSpace(string(out)))
		}
		return nil

	case SourceLocal:
		abs, err := filepath.Abs(src.URL)
		if err != nil {
			return fmt.Errorf("invalid local path %s: %w", src.URL, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("local path does not exist: %s", src.URL)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create plugins directory: %w", err)
		}
		if err := os.Symlink(abs, dest); err != nil {
			return fmt.Errorf("failed to link %s: %w", abs, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown source type: %s", src.Type)
	}
}

func (i *CommandInstaller) Build(ctx context.Context, dir string, rt Runtime) error {
	switch rt {
	case RuntimeNode:
		info, ok := readPackageJSON(dir)
		if !ok {
			return nil
		}
		if out, err := i.run(ctx, dir, "npm", "install"); err != nil {
			return fmt.Errorf("npm install failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
		if _, ok := info.Scripts["build"]; ok {
			if out, err := i.run(ctx, dir, "npm", "run", "build"); err != nil {
				return fmt.Errorf("npm run build failed: %w: %s", err, strings.TrimSpace(string(out)))
			}
		}
	case RuntimePython:
		if !exists(dir, "requirements.txt") {
			return nil
		}
		if out, err := i.run(ctx, dir, "pip", "install", "-r", "requirements.txt"); err != nil {
			return fmt.Errorf("pip install failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

// Remove unlinks local plugins and deletes the install directory of the rest.
// A missing path is not an error.
func (i *CommandInstaller) Remove(m Manifest) error {
	if m.InstallPath == "" {
		return nil
	}

	fi, err := os.Lstat(m.InstallPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		logging.Debug("PluginInstaller", "Removing link %s", m.InstallPath)
		return os.Remove(m.InstallPath)
	}
	logging.Debug("PluginInstaller", "Removing directory %s", m.InstallPath)
	return os.RemoveAll(m.InstallPath)
}
