package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"toolhub/internal/app"
	"toolhub/internal/config"
	"toolhub/pkg/logging"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the toolhub JSON-RPC server and MCP bridge",
		Long: `Starts toolhub with the native capabilities and every installed plugin.

The JSON-RPC server listens on http://<host>:<port>/rpc, or reads
newline-delimited requests from stdin with --transport stdio. With --bridge
the catalog is also served as MCP tools, over streamable HTTP or stdio.

Configuration is read from config.yaml in the configuration directory.
Flags and TOOLHUB_* environment variables override the file, for example
TOOLHUB_SERVER_PORT=9000. Changes to allowedCategories in config.yaml are
applied without a restart.

When started by systemd with Type=notify, readiness is reported once the
server accepts requests.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.String("host", config.DefaultHost, "Host the JSON-RPC server binds to")
	flags.Int("port", config.DefaultPort, "Port of the JSON-RPC server")
	flags.String("transport", config.TransportHTTP, "JSON-RPC transport (http or stdio)")
	flags.String("token", "", "Bearer token required by the HTTP transport")
	flags.Bool("bridge", false, "Serve the catalog as an MCP server")
	flags.Int("bridge-port", config.DefaultBridgePort, "Port of the MCP bridge")
	flags.String("bridge-transport", config.TransportStreamableHTTP, "MCP bridge transport (streamable-http or stdio)")
	flags.StringSlice("allow", nil, "Allowed category prefixes, \"*\" for all")
	flags.Bool("auto-start", false, "Start every installed plugin")

	bindings := map[string]string{
		config.KeyServerHost:        "host",
		config.KeyServerPort:        "port",
		config.KeyServerTransport:   "transport",
		config.KeyServerToken:       "token",
		config.KeyBridgeEnabled:     "bridge",
		config.KeyBridgePort:        "bridge-port",
		config.KeyBridgeTransport:   "bridge-transport",
		config.KeyAllowedCategories: "allow",
		config.KeyPluginsAutoStart:  "auto-start",
	}
	for key, name := range bindings {
		// Only flags set on the command line count as overrides.
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.NewConfig(debug, configDir, v, rootCmd.Version)
	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	err = application.Run(ctx, notifyReady)
	notify(daemon.SdNotifyStopping)
	return err
}

func notifyReady() {
	notify(daemon.SdNotifyReady)
}

func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Serve", "Failed to notify systemd: %v", err)
		return
	}
	if sent {
		logging.Debug("Serve", "Notified systemd: %s", state)
	}
}
