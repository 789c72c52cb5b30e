package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"toolhub/internal/api"
	"toolhub/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeNotFound indicates the named plugin or capability does not exist.
	ExitCodeNotFound = 2
	// ExitCodeInvalidConfig indicates config.yaml failed validation.
	ExitCodeInvalidConfig = 3
)

var (
	configDir string
	debug     bool

	// v collects TOOLHUB_* environment variables and flag overrides.
	v = config.NewViper()
)

// rootCmd is the base command when toolhub is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "toolhub",
	Short: "Capability hub for native tools and MCP plugins",
	Long: `toolhub exposes native capabilities and the tools of installed MCP plugins
through a single catalog. Clients reach the catalog over JSON-RPC (HTTP or
stdio) or as an MCP server through the bridge.`,
	SilenceUsage: true,
}

// SetVersion sets the version reported by --version and the servers.
func SetVersion(version string) {
	rootCmd.Version = version
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic exit code on
// failure. It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "toolhub version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to an exit code for scripting.
func getExitCode(err error) int {
	if api.IsNotFound(err) {
		return ExitCodeNotFound
	}
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return ExitCodeInvalidConfig
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.config/toolhub)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newPluginCmd())
	rootCmd.AddCommand(newCapabilitiesCmd())
	rootCmd.AddCommand(newWorkflowCmd())
	rootCmd.AddCommand(newPersonaCmd())
}
