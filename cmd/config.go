package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/config"
	"github.com/qrdeck/qrdeck/internal/output"
)

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print every setting after defaults, the config file and QRDECK_* environment
variables have been applied.

Settings can be overridden per variable, with __ separating sections:
  QRDECK_BACKEND__URL=http://localhost:8080
  QRDECK_CUSTOMIZATION__MODE=local`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// configPathCmd prints where the config file is read from.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ctx.Config.Source
		if path == "" {
			path = config.DefaultFile()
		}
		if ctx.IsJSON() {
			return ctx.Formatter.JSON(map[string]any{"path": path, "loaded": ctx.Config.Source != ""})
		}
		ctx.Formatter.Println(path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	flat := ctx.Config.Flatten()
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(flat)
	}

	rows := make([]output.TableRow, 0, len(flat))
	for _, key := range ctx.Config.Keys() {
		rows = append(rows, output.TableRow{Columns: []string{key, fmt.Sprint(flat[key])}})
	}

	cli := ctx.CLIFormatter()
	if ctx.Config.Source != "" {
		cli.Muted("Loaded from " + ctx.Config.Source)
	} else {
		cli.Muted("No config file; using defaults and environment")
	}
	cli.PrintTable([]string{"KEY", "VALUE"}, rows)
	return nil
}
