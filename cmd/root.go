// Package cmd provides the CLI commands for qrdeck.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qrdeck",
	Short: "Manage QR code projects from the command line",
	Long: `qrdeck keeps a list of QR code projects in sync with the project service,
customizes their colors, exports codes and shows who scanned them.

Examples:
  qrdeck projects
  qrdeck project create "Menu" "https://example.com/menu" --qr-color "#1d3557"
  qrdeck customize 3f2a... --bg-color "#f1faee"
  qrdeck analytics 3f2a... --since "last week"
  qrdeck browse`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Dynamic completions (__complete) still need the runtime for the cache.
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}

		if flagDebug {
			logging.InitDebug()
		}

		format, err := output.ParseFormat(flagFormat)
		if err != nil {
			return err
		}
		colorMode, err := output.ParseColorMode(flagColor)
		if err != nil {
			return err
		}

		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		opts.ConfigFile = flagConfig
		opts.Writer = cmd.OutOrStdout()

		ctx, err = runtime.New(opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			err := ctx.Close()
			ctx = nil
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show the project list
		return runProjects(cmd, args)
	},
}

// Execute runs the root command and reports any error in the selected
// output format.
func Execute() error {
	err := rootCmd.Execute()
	closeRuntime()
	if err != nil {
		printError(err)
	}
	return err
}

// closeRuntime releases the runtime when a command failed before
// PersistentPostRunE could.
func closeRuntime() {
	if ctx != nil {
		_ = ctx.Close()
		ctx = nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/qrdeck/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("qrdeck %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// printError writes err to stderr, or as JSON to stdout in json mode. The
// runtime may already be closed, so the format flag decides.
func printError(err error) {
	if flagFormat == string(output.FormatJSON) {
		f := output.NewFormatter()
		f.Format = output.FormatJSON
		_ = output.NewJSONFormatter(f).PrintError(runtime.ErrorOutput(err))
		return
	}
	fmt.Fprintln(os.Stderr, "Error: "+runtime.FormatError(err))
}

// projectArg resolves the KEY argument of a command. Without one the last
// viewed project is used.
func projectArg(cmd *cobra.Command, args []string) (model.Project, error) {
	reqCtx := ctx.RequestContext(cmd.Context())
	if len(args) > 0 {
		p, res, err := ctx.Lookup(reqCtx, args[0])
		if err == nil && !res.Fresh {
			ctx.Debugf("resolved %s from cache", args[0])
		}
		return p, err
	}

	active, err := ctx.ActiveRepo.Get()
	if err != nil {
		return model.Project{}, err
	}
	if active == nil {
		return model.Project{}, runtime.ErrNoActiveProject
	}
	key := active.ID
	if ctx.Resolver.Strategy() == identity.StrategyDerived {
		key = active.Key().Composite()
	}
	p, _, err := ctx.Lookup(reqCtx, key)
	return p, err
}
