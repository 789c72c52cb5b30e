package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"toolhub/internal/app"
	"toolhub/internal/config"
	"toolhub/pkg/logging"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// openServices loads the configuration and wires the services for a
// one-shot command. Plugin manifests are restored but not started. The
// caller must Close the result.
func openServices(ctx context.Context) (*app.Services, error) {
	level := logging.LevelWarn
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stderr)

	dir := configDir
	if dir == "" {
		d, err := config.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	cfg, err := config.Load(dir, v)
	if err != nil {
		return nil, err
	}
	services, err := app.InitializeServices(ctx, cfg, dir, rootCmd.Version)
	if err != nil {
		return nil, err
	}
	if _, err := services.Plugins.Load(ctx); err != nil {
		_ = services.Close(ctx)
		return nil, err
	}
	return services, nil
}

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", OutputTable, "Output format (table or json)")
}

func validateOutput(format string) error {
	if format != OutputTable && format != OutputJSON {
		return fmt.Errorf("unsupported output format %q (use table or json)", format)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable creates a table with the standard styling writing to w.
func newTable(w io.Writer, headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = text.FgHiCyan.Sprint(h)
	}
	t.AppendHeader(row)
	return t
}

func printEmpty(w io.Writer, message string) {
	fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint(message))
}
