package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Override keys, usable as viper keys, flag bindings and (upper-cased with
// underscores) environment variables.
const (
	KeyServerHost        = "server.host"
	KeyServerPort        = "server.port"
	KeyServerTransport   = "server.transport"
	KeyServerToken       = "server.token"
	KeyBridgeEnabled     = "bridge.enabled"
	KeyBridgePort        = "bridge.port"
	KeyBridgeTransport   = "bridge.transport"
	KeyAllowedCategories = "allowedCategories"
	KeyPluginsDir        = "plugins.dir"
	KeyPluginsAutoStart  = "plugins.autoStart"
	KeyStartTimeout      = "plugins.startTimeout"
	KeyInvokeTimeout     = "executor.defaultTimeout"
	KeyLLMEndpoint       = "llm.endpoint"
	KeyLLMAPIKey         = "llm.apiKey"
	KeyLLMDeployment     = "llm.deployment"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
	KeyTracingExporter   = "tracing.exporter"
	KeyTracingEndpoint   = "tracing.endpoint"
)

// OverrideKeys lists every key applyOverrides understands.
var OverrideKeys = []string{
	KeyServerHost, KeyServerPort, KeyServerTransport, KeyServerToken,
	KeyBridgeEnabled, KeyBridgePort, KeyBridgeTransport,
	KeyAllowedCategories,
	KeyPluginsDir, KeyPluginsAutoStart, KeyStartTimeout,
	KeyInvokeTimeout,
	KeyLLMEndpoint, KeyLLMAPIKey, KeyLLMDeployment,
	KeyLogLevel, KeyLogFormat,
	KeyTracingExporter, KeyTracingEndpoint,
}

func applyOverrides(cfg *Config, v *viper.Viper) error {
	strs := map[string]*string{
		KeyServerHost:      &cfg.Server.Host,
		KeyServerTransport: &cfg.Server.Transport,
		KeyServerToken:     &cfg.Server.Token,
		KeyBridgeTransport: &cfg.Bridge.Transport,
		KeyPluginsDir:      &cfg.Plugins.Dir,
		KeyLLMEndpoint:     &cfg.LLM.Endpoint,
		KeyLLMAPIKey:       &cfg.LLM.APIKey,
		KeyLLMDeployment:   &cfg.LLM.Deployment,
		KeyLogLevel:        &cfg.Logging.Level,
		KeyLogFormat:       &cfg.Logging.Format,
		KeyTracingExporter: &cfg.Tracing.Exporter,
		KeyTracingEndpoint: &cfg.Tracing.Endpoint,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		KeyServerPort: &cfg.Server.Port,
		KeyBridgePort: &cfg.Bridge.Port,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	bools := map[string]*bool{
		KeyBridgeEnabled:    &cfg.Bridge.Enabled,
		KeyPluginsAutoStart: &cfg.Plugins.AutoStart,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	durations := map[string]*time.Duration{
		KeyStartTimeout:  &cfg.Plugins.StartTimeout,
		KeyInvokeTimeout: &cfg.Executor.DefaultTimeout,
	}
	for key, dst := range durations {
		if !v.IsSet(key) {
			continue
		}
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		*dst = d
	}

	if v.IsSet(KeyAllowedCategories) {
		cfg.AllowedCategories = v.GetStringSlice(KeyAllowedCategories)
	}
	return nil
}
