package cmd

import (
	"time"

	"github.com/spf13/cobra"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/runtime"
)

var projectsFlagSearch string

// projectsCmd lists projects.
var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"ls", "list"},
	Short:   "List projects",
	Long: `Fetch the project list from the project service. When the service cannot be
reached the last cached list is shown and marked as offline.

Examples:
  qrdeck projects
  qrdeck ls --search menu
  qrdeck projects -f json`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

func init() {
	projectsCmd.Flags().StringVarP(&projectsFlagSearch, "search", "s", "", "Only show projects whose name or text contains this text")
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	res, err := ctx.Projects(ctx.RequestContext(cmd.Context()))
	if err != nil {
		return err
	}
	if !res.Fresh && res.Cause != nil {
		ctx.Debugf("serving cache: %s", qerrors.Notice(res.Cause))
	}

	projects := res.Projects
	if projectsFlagSearch != "" {
		projects, err = ctx.Customize.Apply(ctx.Engine.Filter(projectsFlagSearch))
		if err != nil {
			return err
		}
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintProjects(projects, res.Fresh, res.FetchedAt, res.Generation)
	}
	cli := ctx.CLIFormatter()
	cli.PrintProjects(projects, !res.Fresh, res.FetchedAt, time.Now())
	if res.CacheErr != nil {
		cli.Warning("Offline cache was not updated: " + runtime.FormatError(res.CacheErr))
	}
	return nil
}
