package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"toolhub/internal/plugin"
	thstrings "toolhub/pkg/strings"
)

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugin",
		Aliases: []string{"plugins"},
		Short:   "Install and manage MCP plugins",
	}
	cmd.AddCommand(
		newPluginInstallCmd(),
		newPluginListCmd(),
		newPluginAvailableCmd(),
		newPluginStartCmd(),
		newPluginStopCmd(),
		newPluginUninstallCmd(),
	)
	return cmd
}

func newPluginInstallCmd() *cobra.Command {
	var (
		req   plugin.InstallRequest
		env   map[string]string
		quiet bool
		start bool
	)
	cmd := &cobra.Command{
		Use:   "install <source>",
		Short: "Install a plugin",
		Long: `Installs a plugin from a GitHub URL, an npm package ("npm:<name>" or
"npx:<name>"), a remote MCP endpoint (http or https URL) or a local
directory. The plugin is built for its runtime and recorded in the plugin
database; it starts with the next "toolhub serve".`,
		Example: `  toolhub plugin install https://github.com/org/weather-mcp
  toolhub plugin install npm:@modelcontextprotocol/server-memory --category storage
  toolhub plugin install https://mcp.example.com/mcp --name example`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Source = args[0]
			req.Env = env

			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			var s *spinner.Spinner
			if !quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				s.Suffix = " Installing " + req.Source + "..."
				s.Start()
			}

			install := services.Plugins.Install
			if start {
				install = services.Plugins.InstallAndStart
			}
			manifest, err := install(cmd.Context(), req)
			if s != nil {
				if err != nil {
					s.FinalMSG = text.FgRed.Sprint("Installation failed") + "\n"
				}
				s.Stop()
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s plugin %s (%s, %s)\n",
				text.FgGreen.Sprint("Installed"), manifest.ID, manifest.Runtime, manifest.Status)
			if len(manifest.ToolsDiscovered) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Tools: %s\n", strings.Join(manifest.ToolsDiscovered, ", "))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "Plugin name (derived from the source by default)")
	flags.StringVar((*string)(&req.Runtime), "runtime", "", "Runtime (node, python, rust, docker, binary, remote); detected by default")
	flags.StringVar(&req.Category, "category", "", "Category for the plugin's capabilities")
	flags.StringToStringVar(&env, "env", nil, "Environment variables for the plugin process (KEY=VALUE)")
	flags.BoolVar(&start, "start", false, "Start the plugin after installing to verify it")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress spinner")
	return cmd
}

func newPluginListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			manifests := services.Plugins.List()
			w := cmd.OutOrStdout()
			if output == OutputJSON {
				return printJSON(w, manifests)
			}
			if len(manifests) == 0 {
				printEmpty(w, "No plugins installed")
				return nil
			}

			t := newTable(w, "ID", "VERSION", "RUNTIME", "CATEGORY", "STATUS", "SOURCE")
			for _, m := range manifests {
				t.AppendRow([]interface{}{m.ID, m.Version, m.Runtime, m.Category, statusText(m), m.Source.URL})
			}
			t.Render()
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func statusText(m plugin.Manifest) string {
	switch m.Status {
	case plugin.StatusRunning:
		return text.FgGreen.Sprint(m.Status)
	case plugin.StatusError:
		return text.FgRed.Sprint(m.Status)
	default:
		return string(m.Status)
	}
}

func newPluginAvailableCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List recommended plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			available := services.Plugins.Available()
			w := cmd.OutOrStdout()
			if output == OutputJSON {
				return printJSON(w, available)
			}

			t := newTable(w, "NAME", "CATEGORY", "RUNTIME", "INSTALLED", "DESCRIPTION")
			for _, a := range available {
				installed := ""
				if a.Installed {
					installed = text.FgGreen.Sprint("yes")
				}
				t.AppendRow([]interface{}{a.Name, a.Category, a.Runtime, installed, thstrings.Truncate(a.Description, thstrings.DescriptionWidth)})
			}
			t.Render()
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newPluginStartCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a plugin and list the capabilities it provides",
		Long: `Starts a plugin, connects to its provider and lists the capabilities
discovered from it. The plugin is stopped again when the command exits;
use --wait to keep it running until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			manifest, err := services.Plugins.Start(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s plugin %s\n", text.FgGreen.Sprint("Started"), manifest.ID)
			defs := services.Registry.GetByOwner(manifest.ID)
			if len(defs) == 0 {
				printEmpty(w, "The plugin provides no capabilities")
			} else {
				t := newTable(w, "TYPE", "CATEGORY", "DESCRIPTION")
				for _, d := range defs {
					t.AppendRow([]interface{}{d.Type, d.Category, thstrings.Truncate(d.Description, thstrings.DescriptionWidth)})
				}
				t.Render()
			}

			if wait {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				fmt.Fprintln(w, "Press Ctrl+C to stop")
				<-ctx.Done()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Keep the plugin running until interrupted")
	return cmd
}

func newPluginStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			manifest, err := services.Plugins.Stop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plugin %s is %s\n", manifest.ID, manifest.Status)
			return nil
		},
	}
}

func newPluginUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <id>",
		Aliases: []string{"remove", "rm"},
		Short:   "Stop and remove a plugin",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			if err := services.Plugins.Uninstall(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s plugin %s\n", text.FgGreen.Sprint("Uninstalled"), args[0])
			return nil
		},
	}
}
