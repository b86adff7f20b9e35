package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qrdeck/qrdeck/internal/customize"
	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/qrcode"
	"github.com/qrdeck/qrdeck/internal/validate"
)

// projectCmd groups single-project commands.
var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"proj", "p"},
	Short:   "Show, create, edit or delete a project",
	Long: `Manage a single project. KEY is the project id, or name|text when
identity.strategy is "derived". Commands that take an optional KEY fall back to
the project viewed last.

Examples:
  qrdeck project show 1718000000000-9b1c...
  qrdeck project create "Wifi" "WIFI:T:WPA;S:home;P:secret;;"
  qrdeck project edit 1718000000000-9b1c... --name "Guest wifi"
  qrdeck project delete 1718000000000-9b1c...`,
}

// Project subcommand flags.
var (
	projectCreateFlagQRColor string
	projectCreateFlagBGColor string
	projectCreateFlagOffline bool
	projectEditFlagName      string
	projectEditFlagText      string
)

// projectShowCmd shows one project.
var projectShowCmd = &cobra.Command{
	Use:               "show [KEY]",
	Short:             "Show a project",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeProjectArgs,
	RunE:              runProjectShow,
}

// projectCreateCmd creates a new project.
var projectCreateCmd = &cobra.Command{
	Use:   "create NAME TEXT",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectCreate,
}

// projectEditCmd edits an existing project.
var projectEditCmd = &cobra.Command{
	Use:               "edit KEY",
	Short:             "Change a project's name or text",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjectArgs,
	RunE:              runProjectEdit,
}

// projectDeleteCmd deletes a project.
var projectDeleteCmd = &cobra.Command{
	Use:               "delete KEY",
	Aliases:           []string{"rm"},
	Short:             "Delete a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProjectArgs,
	RunE:              runProjectDelete,
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateFlagQRColor, "qr-color", "", "Foreground color (#RRGGBB)")
	projectCreateCmd.Flags().StringVar(&projectCreateFlagBGColor, "bg-color", "", "Background color (#RRGGBB)")
	projectCreateCmd.Flags().BoolVar(&projectCreateFlagOffline, "offline", false, "Assign the project id locally instead of letting the service pick one")

	projectEditCmd.Flags().StringVarP(&projectEditFlagName, "name", "n", "", "New name")
	projectEditCmd.Flags().StringVarP(&projectEditFlagText, "text", "t", "", "New text to encode")

	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	p, err := projectArg(cmd, args)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(projectOutput(p))
	}
	value, link := ctx.QRValue(p, ctx.QRMode)
	ctx.CLIFormatter().PrintProject(p, value, link)
	return nil
}

// projectOutput is the JSON form of p including what its QR encodes.
func projectOutput(p model.Project) *output.ProjectOutput {
	out := output.NewProjectOutput(p)
	out.QRValue, out.Link = ctx.QRValue(p, ctx.QRMode)
	return out
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	name := validate.SanitizeProjectName(args[0])
	text := args[1]
	if err := validate.ProjectName(name); err != nil {
		return err
	}
	if err := validate.ProjectText(text); err != nil {
		return err
	}
	if err := validate.HexColor("qr-color", projectCreateFlagQRColor); err != nil {
		return err
	}
	if err := validate.HexColor("bg-color", projectCreateFlagBGColor); err != nil {
		return err
	}

	p := model.NewProject(name, text)
	if projectCreateFlagQRColor != "" {
		p.QRColor = projectCreateFlagQRColor
	}
	if projectCreateFlagBGColor != "" {
		p.BGColor = projectCreateFlagBGColor
	}
	if projectCreateFlagOffline {
		p.ID = identity.NewID()
	}

	// A project is never saved without its image.
	image, err := qrcode.Capture(ctx.Renderer, qrcode.Value(ctx.Remote.BaseURL(), p, ctx.QRMode), p.Customization(), ctx.Config.QR.Size)
	if err != nil {
		return err
	}
	p.QRImage = image

	reqCtx := ctx.RequestContext(cmd.Context())
	id, err := ctx.Remote.SaveProject(reqCtx, p)
	if err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = id
	}
	logging.InfoContext(reqCtx, "project created", logging.KeyProject, p.Key().String())

	if p.ID != "" {
		if err := ctx.ActiveRepo.Set(p); err != nil {
			ctx.Debugf("could not remember active project: %v", err)
		}
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintMutation("created", &p, projectCreateFlagOffline)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Created " + cli.ProjectName(p.Name))
	if p.ID != "" {
		cli.Muted("  id " + p.ID)
	}
	return nil
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
	if projectEditFlagName == "" && projectEditFlagText == "" {
		return qerrors.NewUserError("Nothing to change", "Pass --name or --text")
	}

	p, err := projectArg(cmd, args)
	if err != nil {
		return err
	}
	before := p.Key()

	if projectEditFlagName != "" {
		p.Name = validate.SanitizeProjectName(projectEditFlagName)
		if err := validate.ProjectName(p.Name); err != nil {
			return err
		}
	}
	if projectEditFlagText != "" {
		p.Text = projectEditFlagText
		if err := validate.ProjectText(p.Text); err != nil {
			return err
		}
	}
	if p.ID == "" {
		return identity.ErrMissingID
	}

	reqCtx := ctx.RequestContext(cmd.Context())
	if err := ctx.Remote.UpdateProject(reqCtx, p.ID, p.Name, p.Text); err != nil {
		return err
	}
	if err := moveLocalColors(before, p.Key()); err != nil {
		ctx.Debugf("could not move local colors: %v", err)
	}
	if err := ctx.ActiveRepo.Set(p); err != nil {
		ctx.Debugf("could not remember active project: %v", err)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintMutation("updated", &p, false)
	}
	ctx.CLIFormatter().Success("Updated " + ctx.CLIFormatter().ProjectName(p.Name))
	return nil
}

// moveLocalColors keeps a local override attached to a project whose name
// or text changed, since local overrides are keyed by name|text.
func moveLocalColors(from, to model.ProjectKey) error {
	if ctx.Customize.Mode() != customize.ModeLocal || from.Composite() == to.Composite() {
		return nil
	}
	c, ok, err := ctx.CustomizationRepo.Get(from)
	if err != nil || !ok {
		return err
	}
	if err := ctx.CustomizationRepo.Put(to, c); err != nil {
		return err
	}
	return ctx.CustomizationRepo.Delete(from)
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	p, err := projectArg(cmd, args)
	if err != nil {
		return err
	}
	if p.ID == "" {
		return identity.ErrMissingID
	}

	reqCtx := ctx.RequestContext(cmd.Context())
	if err := ctx.Remote.DeleteProject(reqCtx, p.ID); err != nil {
		return err
	}
	if err := ctx.Customize.Forget(p); err != nil {
		ctx.Debugf("could not drop local colors: %v", err)
	}
	if err := ctx.ActiveRepo.Clear(); err != nil {
		ctx.Debugf("could not clear active project: %v", err)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintMutation("deleted", &p, false)
	}
	ctx.CLIFormatter().Success("Deleted " + ctx.CLIFormatter().ProjectName(p.Name))
	return nil
}
