package config

import "time"

// Transports for the JSON-RPC server and the MCP bridge.
const (
	TransportHTTP           = "http"
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config is the top-level configuration.
type Config struct {
	Server            ServerConfig   `yaml:"server" json:"server"`
	Bridge            BridgeConfig   `yaml:"bridge" json:"bridge"`
	AllowedCategories []string       `yaml:"allowedCategories" json:"allowedCategories"`
	Plugins           PluginsConfig  `yaml:"plugins" json:"plugins"`
	Executor          ExecutorConfig `yaml:"executor" json:"executor"`
	LLM               LLMConfig      `yaml:"llm" json:"llm"`
	Logging           LoggingConfig  `yaml:"logging" json:"logging"`
	Tracing           TracingConfig  `yaml:"tracing" json:"tracing"`
}

// ServerConfig configures the JSON-RPC server.
type ServerConfig struct {
	Host           string `yaml:"host" json:"host" validate:"required_if=Transport http"`
	Port           int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Transport      string `yaml:"transport" json:"transport" validate:"oneof=http stdio"`
	Token          string `yaml:"token,omitempty" json:"token,omitempty"`
	RequestLogSize int    `yaml:"requestLogSize" json:"requestLogSize" validate:"min=1,max=100000"`
}

// BridgeConfig configures the MCP bridge.
type BridgeConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port" validate:"min=0,max=65535"`
	Transport string `yaml:"transport" json:"transport" validate:"oneof=streamable-http stdio"`
}

// PluginsConfig configures the plugin manager.
type PluginsConfig struct {
	// Dir holds installed plugins; relative paths are resolved against the
	// config directory.
	Dir          string        `yaml:"dir" json:"dir" validate:"required"`
	Database     string        `yaml:"database" json:"database" validate:"required"`
	StartTimeout time.Duration `yaml:"startTimeout" json:"startTimeout" validate:"min=0"`
	AutoStart    bool          `yaml:"autoStart" json:"autoStart"`
}

// ExecutorConfig configures the execution adapter.
type ExecutorConfig struct {
	DefaultTimeout time.Duration `yaml:"defaultTimeout" json:"defaultTimeout" validate:"min=0"`
}

// LLMConfig configures the Azure OpenAI collaborator. It is optional; an
// empty endpoint leaves the llm dependency unavailable.
type LLMConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" validate:"omitempty,url"`
	APIKey     string `yaml:"apiKey,omitempty" json:"apiKey,omitempty" validate:"required_with=Endpoint"`
	Deployment string `yaml:"deployment,omitempty" json:"deployment,omitempty" validate:"required_with=Endpoint"`
}

// Configured reports whether an endpoint is set.
func (c LLMConfig) Configured() bool {
	return c.Endpoint != ""
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter" json:"exporter" validate:"oneof=none stdout otlp"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" validate:"required_if=Exporter otlp"`
}
