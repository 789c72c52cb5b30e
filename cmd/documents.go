package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"toolhub/internal/config"
)

// newDocumentCmd builds the list/add commands for one document kind kept
// under the config directory.
func newDocumentCmd(kind, use, noun string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Aliases: []string{kind},
		Short:   fmt.Sprintf("Manage %s definitions in the config directory", noun),
	}
	cmd.AddCommand(newDocumentListCmd(kind, noun), newDocumentAddCmd(kind, noun))
	return cmd
}

func newDocumentListCmd(kind, noun string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s definitions", noun),
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

			names, err := services.Storage.List(kind)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output == OutputJSON {
				return printJSON(w, names)
			}
			if len(names) == 0 {
				printEmpty(w, fmt.Sprintf("No %s definitions found", noun))
				return nil
			}
			t := newTable(w, "NAME")
			for _, name := range names {
				t.AppendRow(table.Row{name})
			}
			t.Render()
			fmt.Fprintf(w, "Total: %d\n", len(names))
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newDocumentAddCmd(kind, noun string) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: fmt.Sprintf("Copy a %s definition into the config directory", noun),
		Long: fmt.Sprintf(`Validates that <file> is a YAML mapping and stores it under the %s/
subdirectory of the config directory. The stored name defaults to the file
name without its extension.`, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("%s is not a valid %s definition: %w", args[0], noun, err)
			}

			target := name
			if target == "" {
				base := filepath.Base(args[0])
				target = strings.TrimSuffix(base, filepath.Ext(base))
			}

			services, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close(cmd.Context())

			if err := services.Storage.Save(kind, target, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", text.FgGreen.Sprint("Saved"), noun, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name to store the definition under")
	return cmd
}

func newWorkflowCmd() *cobra.Command {
	return newDocumentCmd(config.KindWorkflows, "workflow", "workflow")
}

func newPersonaCmd() *cobra.Command {
	return newDocumentCmd(config.KindPersonas, "persona", "persona")
}
