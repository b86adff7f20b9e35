package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/tui"
)

// browseCmd opens the interactive project browser.
var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ui", "tui"},
	Short:   "Browse projects interactively",
	Long: `Open a full-screen project browser. The list refreshes in the background and
follows color changes made from the browser or by other commands in this process.

Keys:
  ↑/↓ or j/k  move        /      search
  enter       details     r      refresh
  x           reset colors q     quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Run(tui.BrowserConfig{
			Source:     ctx.Engine,
			Customizer: ctx.Customize,
			Bus:        ctx.Bus,
			ValueFor: func(p model.Project) string {
				value, _ := ctx.QRValue(p, ctx.QRMode)
				return value
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
