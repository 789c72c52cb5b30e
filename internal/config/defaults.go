package config

import "time"

// Defaults.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 8765
	DefaultBridgePort     = 8766
	DefaultRequestLogSize = 100
	DefaultStartTimeout   = 60 * time.Second
	DefaultInvokeTimeout  = 30 * time.Second
)

// Default returns the configuration used when config.yaml is absent.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			Transport:      TransportHTTP,
			RequestLogSize: DefaultRequestLogSize,
		},
		Bridge: BridgeConfig{
			Host:      DefaultHost,
			Port:      DefaultBridgePort,
			Transport: TransportStreamableHTTP,
		},
		AllowedCategories: []string{"*"},
		Plugins: PluginsConfig{
			Dir:          "plugins",
			Database:     "toolhub.db",
			StartTimeout: DefaultStartTimeout,
		},
		Executor: ExecutorConfig{DefaultTimeout: DefaultInvokeTimeout},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Tracing:  TracingConfig{Exporter: "none"},
	}
}
