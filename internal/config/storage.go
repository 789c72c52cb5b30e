package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"toolhub/pkg/logging"
)

// Document kinds kept in the config directory.
const (
	KindWorkflows = "workflows"
	KindPersonas  = "personas"
)

// Storage reads and writes YAML documents in per-kind subdirectories of the
// config directory.
type Storage struct {
	mu  sync.RWMutex
	dir string
}

// NewStorage creates a storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

// Save writes data as <dir>/<kind>/<name>.yaml.
func (s *Storage) Save(kind, name string, data []byte) error {
	if kind == "" {
		return fmt.Errorf("kind cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", target, err)
	}

	path := filepath.Join(target, sanitizeFilename(name)+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	logging.Info("Storage", "Saved %s/%s to %s", kind, name, path)
	return nil
}

// List returns the sorted document names of kind. A missing directory is
// an empty list.
func (s *Storage) List(kind string) ([]string, error) {
	if kind == "" {
		return nil, fmt.Errorf("kind cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files(kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return names, nil
}

// LoadAll decodes every document of kind, sorted by name. Each document
// gets a "name" key from its file name unless it sets one itself. Files that
// fail to parse are skipped with a warning.
func (s *Storage) LoadAll(kind string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.files(kind)
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logging.Warn("Storage", "Skipping %s: %v", f, err)
			continue
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			logging.Warn("Storage", "Skipping malformed %s: %v", f, err)
			continue
		}
		if doc == nil {
			doc = map[string]any{}
		}
		if _, ok := doc["name"]; !ok {
			base := filepath.Base(f)
			doc["name"] = strings.TrimSuffix(base, filepath.Ext(base))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Storage) files(kind string) ([]string, error) {
	dir := filepath.Join(s.dir, kind)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s files: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// sanitizeFilename ensures the filename is safe for filesystem operations
func sanitizeFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, name)

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
