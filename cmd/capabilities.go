package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"toolhub/internal/app"
	"toolhub/internal/capability"
	"toolhub/pkg/logging"
	thstrings "toolhub/pkg/strings"
)

type capabilitiesOptions struct {
	output      string
	withPlugins bool
}

func newCapabilitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "Inspect the capability catalog",
	}
	cmd.AddCommand(newCapabilitiesListCmd(), newCapabilitiesSearchCmd())
	return cmd
}

func newCapabilitiesListCmd() *cobra.Command {
	var (
		opts     capabilitiesOptions
		category string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the capabilities allowed by the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(cmd, opts, func(s *app.Services) []capability.Definition {
				if category != "" {
					return s.Registry.GetByCategory(category)
				}
				return s.Registry.GetAll()
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list capabilities of this category")
	addCapabilitiesFlags(cmd, &opts)
	return cmd
}

func newCapabilitiesSearchCmd() *cobra.Command {
	var opts capabilitiesOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search capabilities by type, label, description or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(cmd, opts, func(s *app.Services) []capability.Definition {
				return s.Registry.Search(args[0])
			})
		},
	}
	addCapabilitiesFlags(cmd, &opts)
	return cmd
}

func addCapabilitiesFlags(cmd *cobra.Command, opts *capabilitiesOptions) {
	addOutputFlag(cmd, &opts.output)
	cmd.Flags().BoolVar(&opts.withPlugins, "with-plugins", false, "Start installed plugins to include their capabilities")
}

func runCapabilities(cmd *cobra.Command, opts capabilitiesOptions, query func(*app.Services) []capability.Definition) error {
	if err := validateOutput(opts.output); err != nil {
		return err
	}
	services, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer services.Close(cmd.Context())

	if opts.withPlugins {
		if err := services.Plugins.StartAll(cmd.Context()); err != nil {
			logging.Warn("Capabilities", "Some plugins failed to start: %v", err)
		}
	}

	var defs []capability.Definition
	for _, d := range query(services) {
		if services.RPC.IsCategoryAllowed(d.Category) {
			defs = append(defs, d)
		}
	}
	if defs == nil {
		defs = []capability.Definition{}
	}

	w := cmd.OutOrStdout()
	if opts.output == OutputJSON {
		return printJSON(w, defs)
	}
	printCapabilities(w, defs)
	return nil
}

func printCapabilities(w io.Writer, defs []capability.Definition) {
	if len(defs) == 0 {
		printEmpty(w, "No capabilities found")
		return
	}
	t := newTable(w, "TYPE", "CATEGORY", "RUNTIME", "OWNER", "DESCRIPTION")
	for _, d := range defs {
		owner := d.PluginOwner
		if owner == "" {
			owner = "-"
		}
		t.AppendRow([]interface{}{d.Type, d.Category, d.Runtime, owner, thstrings.Truncate(d.Description, thstrings.DescriptionWidth)})
	}
	t.Render()
	fmt.Fprintf(w, "Total: %d\n", len(defs))
}
