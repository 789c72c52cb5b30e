// Package app bootstraps and runs toolhub.
//
// It loads the configuration, initializes logging and tracing, and wires the
// long-lived components together:
//
//   - the capability registry, seeded with the native capabilities
//   - the plugin manager, persisting manifests in sqlite
//   - the execution adapter, whose dependency checker consults the plugin
//     manager and the configured LLM client
//   - the JSON-RPC protocol server and its resources
//   - the MCP bridge, when enabled
//
// # Lifecycle
//
//	cfg := app.NewConfig(false, "", config.NewViper(), version)
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx, nil)
//
// Run restores persisted plugins, optionally starts them, watches
// config.yaml for allow-list changes and serves the configured transports.
// When the primary transport stops, for example because stdin reached EOF,
// the remaining transports are cancelled and every plugin is stopped before
// Run returns.
package app
