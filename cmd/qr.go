package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/qrcode"
	"github.com/qrdeck/qrdeck/internal/runtime"
	"github.com/qrdeck/qrdeck/internal/storage"
	"github.com/qrdeck/qrdeck/internal/validate"
)

// QR flags.
var (
	qrFlagDirect bool
	qrFlagOut    string
	qrFlagSize   int
)

// qrCmd prints what a project's QR encodes and optionally exports it.
var qrCmd = &cobra.Command{
	Use:   "qr [KEY]",
	Short: "Show or export a project's QR code",
	Long: `Print the value a project's QR code encodes and the link a scan opens.
By default codes encode the tracking link so scans are counted; --direct encodes
the project text itself.

Examples:
  qrdeck qr 1718000000000-9b1c...
  qrdeck qr 1718000000000-9b1c... --out menu.png --size 512
  qrdeck qr --direct`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeProjectArgs,
	RunE:              runQR,
}

func init() {
	qrCmd.Flags().BoolVar(&qrFlagDirect, "direct", false, "Encode the project text instead of the tracking link")
	qrCmd.Flags().StringVarP(&qrFlagOut, "out", "o", "", "Write the QR code as PNG to this file or directory")
	qrCmd.Flags().IntVar(&qrFlagSize, "size", 0, "PNG size in pixels (default qr.size)")
	rootCmd.AddCommand(qrCmd)
}

func runQR(cmd *cobra.Command, args []string) error {
	size := qrFlagSize
	if size == 0 {
		size = ctx.Config.QR.Size
	}
	if err := validate.InRange("size", size, 64, 2048); err != nil {
		return err
	}

	p, err := projectArg(cmd, args)
	if err != nil {
		return err
	}

	mode := ctx.QRMode
	if qrFlagDirect {
		mode = qrcode.ModeDirect
	}
	value, link := ctx.QRValue(p, mode)

	if qrFlagOut != "" {
		if info, err := os.Stat(qrFlagOut); err == nil && info.IsDir() {
			qrFlagOut = filepath.Join(qrFlagOut, validate.SafeFilename(p.Name)+".png")
		}
		png, err := ctx.Renderer.Render(value, p.Customization(), size)
		if err != nil {
			return fmt.Errorf("%w: %w", qerrors.ErrCaptureFailure, err)
		}
		if err := storage.SafeWrite(qrFlagOut, png, 0o644); err != nil {
			return runtime.WrapDiskFullError(err, "export QR", qrFlagOut)
		}
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.QRResponse{
			Project: p.Key().String(),
			Mode:    string(mode),
			Value:   value,
			Link:    link,
			File:    qrFlagOut,
		})
	}

	cli := ctx.CLIFormatter()
	cli.Println(cli.ProjectName(p.Name))
	cli.Printf("  Encodes: %s\n", value)
	cli.Printf("  Opens:   %s\n", link)
	if qrFlagOut != "" {
		cli.Success("Wrote " + qrFlagOut)
	}
	return nil
}
