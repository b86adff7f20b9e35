package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/analytics"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/parser"
)

// Analytics flags.
var (
	analyticsFlagSince string
	analyticsFlagLimit int
)

// analyticsCmd shows scan analytics for a project.
var analyticsCmd = &cobra.Command{
	Use:     "analytics [KEY]",
	Aliases: []string{"stats", "scans"},
	Short:   "Show who scanned a project's QR code",
	Long: `Show the total scan count, scans per day, where and on what devices the code
was scanned, and the most recent scans.

--since limits the per-day chart, breakdown and history to a time window.
Accepted forms: ` + strings.Join(parser.SinceExamples, ", ") + `.

Examples:
  qrdeck analytics 1718000000000-9b1c...
  qrdeck analytics --since 7d
  qrdeck analytics 1718000000000-9b1c... --since "last month" --limit 50`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeProjectArgs,
	RunE:              runAnalytics,
}

func init() {
	analyticsCmd.Flags().StringVar(&analyticsFlagSince, "since", "", "Only count scans in this window (e.g. 7d, \"last week\")")
	analyticsCmd.Flags().IntVarP(&analyticsFlagLimit, "limit", "n", 20, "Number of recent scans to list (0 for all)")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	window, err := parser.ParseSince(analyticsFlagSince, time.Now())
	if err != nil {
		return err
	}

	p, err := projectArg(cmd, args)
	if err != nil {
		return err
	}

	data, err := ctx.Remote.ScanAnalytics(ctx.RequestContext(cmd.Context()), p.ID)
	if err != nil {
		return err
	}

	events := analytics.Between(data.ScanEvents, window.From, window.To)
	series := analytics.Aggregate(events)
	summary := analytics.Breakdown(events)
	history := analytics.History(events)

	if ctx.IsJSON() {
		resp := output.AnalyticsResponse{
			Project:   projectOutput(p),
			ScanCount: data.ScanCount,
			Series:    series,
			Summary:   summary,
			History:   history,
		}
		if !window.From.IsZero() {
			resp.From = window.From.UTC().Format(time.RFC3339)
		}
		if !window.To.IsZero() {
			resp.To = window.To.UTC().Format(time.RFC3339)
		}
		return ctx.Formatter.JSON(resp)
	}

	cli := ctx.CLIFormatter()
	cli.Title(p.Name)
	cli.Printf("Total scans: %d\n", data.ScanCount)
	if analyticsFlagSince != "" {
		cli.Muted("Showing " + describeWindow(window))
	}
	cli.Println("")
	cli.PrintChart(series)
	cli.Println("")
	cli.PrintBreakdown(summary)
	cli.Println("")
	cli.PrintHistory(history, analyticsFlagLimit)
	return nil
}

func describeWindow(w parser.Window) string {
	switch {
	case w.From.IsZero() && w.To.IsZero():
		return "all scans"
	case w.To.IsZero():
		return "scans since " + output.FormatTimeShort(w.From)
	default:
		return "scans from " + output.FormatTimeShort(w.From) + " to " + output.FormatTimeShort(w.To)
	}
}
