package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/remote"
	"github.com/qrdeck/qrdeck/internal/server"
	"github.com/qrdeck/qrdeck/internal/validate"
)

var serveFlagAddr string

// serveCmd runs the reference project service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local project service",
	Long: `Serve the project API from the local database. Point backend.url at this
server to use qrdeck without a hosted service, or to test against it.

Examples:
  qrdeck serve
  qrdeck serve --addr :9000
  QRDECK_BACKEND__URL=http://localhost:8080 qrdeck projects`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveFlagAddr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}

	srv := server.New(ctx.BackendRepo, server.Options{
		TrackRatePerMinute: ctx.Config.Server.TrackRatePerMinute,
	})

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if public := ctx.Config.Server.PublicURL; public != "" {
		if err := validate.URL(public); err != nil {
			return err
		}
		logging.Info("tracking links", "example", remote.TrackURL(public, "{id}"))
	}
	if ctx.IsCLI() {
		ctx.CLIFormatter().Success("Serving projects on " + addr + " (ctrl+c to stop)")
	}
	return server.Run(runCtx, addr, srv.Handler())
}
