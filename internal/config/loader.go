package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"toolhub/pkg/logging"
)

const (
	userConfigDir  = ".config/toolhub"
	configFileName = "config.yaml"
)

// EnvPrefix prefixes every environment override, e.g. TOOLHUB_SERVER_PORT.
const EnvPrefix = "TOOLHUB"

var validate = newValidator()

// DefaultDir returns ~/.config/toolhub.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(home, userConfigDir), nil
}

// FilePath returns the config.yaml path inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// Load reads config.yaml from dir over the defaults, applies overrides from
// v (which may be nil), resolves relative plugin paths against dir, and
// validates the result.
func Load(dir string, v *viper.Viper) (Config, error) {
	cfg := Default()

	path := FilePath(dir)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", path)
	case err != nil:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	}

	if v != nil {
		if err := applyOverrides(&cfg, v); err != nil {
			return Config{}, err
		}
	}
	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// NewViper returns a viper instance reading TOOLHUB_* environment variables,
// with nested keys joined by underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) resolvePaths(dir string) {
	if c.Plugins.Dir != "" && !filepath.IsAbs(c.Plugins.Dir) {
		c.Plugins.Dir = filepath.Join(dir, c.Plugins.Dir)
	}
	if c.Plugins.Database != "" && c.Plugins.Database != ":memory:" && !filepath.IsAbs(c.Plugins.Database) {
		c.Plugins.Database = filepath.Join(dir, c.Plugins.Database)
	}
}

// Validate checks c against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fromValidator(verrs)
		}
		return err
	}
	return nil
}
