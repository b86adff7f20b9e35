// Package runtime wires the qrdeck components for one CLI invocation.
package runtime

import (
	"context"
	"io"
	"net/http"

	"github.com/qrdeck/qrdeck/internal/config"
	"github.com/qrdeck/qrdeck/internal/customize"
	"github.com/qrdeck/qrdeck/internal/eventbus"
	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/qrcode"
	"github.com/qrdeck/qrdeck/internal/remote"
	"github.com/qrdeck/qrdeck/internal/storage"
	"github.com/qrdeck/qrdeck/internal/syncer"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.Config
	DB        *storage.DB
	Formatter *output.Formatter

	// Repositories
	CacheRepo         *storage.ProjectCacheRepo
	CustomizationRepo *storage.CustomizationRepo
	ActiveRepo        *storage.ActiveProjectRepo
	BackendRepo       *storage.BackendRepo

	Remote    *remote.Client
	Resolver  *identity.Resolver
	Engine    *syncer.Engine
	Bus       *eventbus.Bus
	Customize *customize.Service
	Renderer  qrcode.Renderer
	QRMode    qrcode.Mode

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	// Config is used as-is when set; otherwise it is loaded from ConfigFile,
	// the environment and the default locations.
	Config     *config.Config
	ConfigFile string

	Format    output.Format
	ColorMode output.ColorMode
	Writer    io.Writer
	Debug     bool

	// HTTPClient overrides the client used for the project service.
	HTTPClient *http.Client
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a new runtime context.
func New(opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(config.Options{File: opts.ConfigFile})
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	strategy, err := identity.ParseStrategy(cfg.Identity.Strategy)
	if err != nil {
		return nil, err
	}
	mode, err := customize.ParseMode(cfg.Customization.Mode)
	if err != nil {
		return nil, err
	}
	qrMode, err := qrcode.ParseMode(cfg.QR.Mode)
	if err != nil {
		return nil, err
	}

	// Open database
	db, moved, err := storage.OpenWithRecovery(storage.Options{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	})
	if err != nil {
		return nil, WrapDiskFullError(err, "open database", cfg.Storage.Path)
	}
	if moved != "" {
		logging.Warn("local store was damaged and has been replaced",
			"path", cfg.Storage.Path,
			"moved_to", moved,
		)
	}

	// Create repositories
	cacheRepo := storage.NewProjectCacheRepo(db)
	customRepo := storage.NewCustomizationRepo(db)

	client := remote.New(remote.Config{
		BaseURL:     cfg.Backend.URL,
		Timeout:     cfg.Backend.Timeout,
		MaxFailures: cfg.Backend.Breaker.MaxFailures,
		OpenTimeout: cfg.Backend.Breaker.OpenTimeout,
		HTTPClient:  opts.HTTPClient,
	})
	resolver := identity.NewResolver(strategy)
	engine := syncer.New(client, cacheRepo, resolver)
	bus := eventbus.New()

	// Create formatter
	formatter := output.NewFormatter()
	if opts.Writer != nil {
		formatter.Writer = opts.Writer
	}
	if opts.Format != "" {
		formatter.Format = opts.Format
	}
	if opts.ColorMode != "" {
		formatter.ColorMode = opts.ColorMode
	}

	logging.DebugLog("runtime ready",
		logging.KeyURL, logging.MaskURL(cfg.Backend.URL),
		"identity", strategy,
		"customization", mode,
		"config_file", cfg.Source,
	)

	return &Context{
		Config:            cfg,
		DB:                db,
		Formatter:         formatter,
		CacheRepo:         cacheRepo,
		CustomizationRepo: customRepo,
		ActiveRepo:        storage.NewActiveProjectRepo(db),
		BackendRepo:       storage.NewBackendRepo(db),
		Remote:            client,
		Resolver:          resolver,
		Engine:            engine,
		Bus:               bus,
		Customize:         customize.NewService(mode, client, engine, customRepo, bus),
		Renderer:          qrcode.NewPNGRenderer(),
		QRMode:            qrMode,
		Debug:             opts.Debug,
	}, nil
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}

// RequestContext derives a context carrying a fresh request id.
func (c *Context) RequestContext(parent context.Context) context.Context {
	return logging.NewRequestContext(parent)
}

// Projects refreshes the list and overlays local customizations. Offline
// results come back with Fresh=false.
func (c *Context) Projects(ctx context.Context) (syncer.Result, error) {
	res, err := c.Engine.Refresh(ctx)
	if err != nil {
		return res, err
	}
	res.Projects, err = c.Customize.Apply(res.Projects)
	return res, err
}

// Lookup parses a user-supplied key, refreshes and resolves it. The result
// is remembered as the active project.
func (c *Context) Lookup(ctx context.Context, input string) (model.Project, syncer.Result, error) {
	key, err := c.Resolver.ParseKey(input)
	if err != nil {
		return model.Project{}, syncer.Result{}, err
	}
	p, res, err := c.Engine.RefreshOne(ctx, key)
	if err != nil {
		return model.Project{}, res, err
	}
	overlaid, err := c.Customize.Apply([]model.Project{p})
	if err != nil {
		return model.Project{}, res, err
	}
	p = overlaid[0]

	if err := c.ActiveRepo.Set(p); err != nil {
		logging.WarnContext(ctx, "could not remember active project", logging.KeyError, err.Error())
	}
	return p, res, nil
}

// QRValue returns the encoded value and the link-to-open for p.
func (c *Context) QRValue(p model.Project, mode qrcode.Mode) (string, string) {
	return qrcode.Value(c.Remote.BaseURL(), p, mode), qrcode.LinkToOpen(p.Text)
}
