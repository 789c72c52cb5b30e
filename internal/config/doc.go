// Package config loads toolhub configuration.
//
// Configuration lives in config.yaml inside the config directory
// (~/.config/toolhub unless overridden). Missing files mean defaults.
// Values can be overridden with a viper instance bound to flags and
// TOOLHUB_* environment variables:
//
//	server:
//	  host: localhost
//	  port: 8765
//	  token: s3cret
//	allowedCategories: ["text", "mcp."]
//	plugins:
//	  startTimeout: 60s
//	  autoStart: true
//	llm:
//	  endpoint: https://example.openai.azure.com
//	  apiKey: ...
//	  deployment: gpt-4o
//
// Watch follows config.yaml and reports every successfully reloaded
// configuration; the server uses it to apply allow-list changes at runtime.
//
// The same directory holds workflow and persona documents under
// workflows/ and personas/, read through Storage.
package config
