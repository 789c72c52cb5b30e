package app

import (
	"io"

	"github.com/spf13/viper"
)

// Config holds the bootstrap options collected by the CLI.
type Config struct {
	// Debug forces debug logging regardless of the configured level.
	Debug bool

	// ConfigDir overrides ~/.config/toolhub.
	ConfigDir string

	// Viper carries flag and TOOLHUB_* environment overrides. May be nil.
	Viper *viper.Viper

	// Version is reported by initialize and the MCP bridge.
	Version string

	// In and Out carry the stdio transports. They default to os.Stdin and
	// os.Stdout.
	In  io.Reader
	Out io.Writer

	// LogOutput defaults to os.Stderr so stdio transports stay clean.
	LogOutput io.Writer
}

// NewConfig creates a bootstrap configuration.
func NewConfig(debug bool, configDir string, v *viper.Viper, version string) *Config {
	return &Config{
		Debug:     debug,
		ConfigDir: configDir,
		Viper:     v,
		Version:   version,
	}
}
