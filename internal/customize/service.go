// Package customize saves and resets a project's QR colors.
//
// In server mode colors live on the project and are written through the
// project service. In local mode they live in the custom_qr_map entry for
// the project's name|text. Either way a successful save or reset publishes
// exactly one CustomizationUpdated event and a failed one publishes none.
package customize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/eventbus"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/validate"
)

// Mode selects where customizations are stored.
type Mode string

const (
	ModeServer Mode = "server"
	ModeLocal  Mode = "local"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeServer:
		return ModeServer, nil
	case ModeLocal:
		return ModeLocal, nil
	}
	return "", fmt.Errorf("unknown customization mode %q (want %q or %q)", s, ModeServer, ModeLocal)
}

// State is the customization state of a project.
type State int

const (
	StateDefault State = iota
	StateCustomized
)

// String returns the state name.
func (s State) String() string {
	if s == StateCustomized {
		return "customized"
	}
	return "default"
}

// StateOf reports whether c differs from the defaults.
func StateOf(c model.Customization) State {
	if c.IsDefault() {
		return StateDefault
	}
	return StateCustomized
}

// ColorUpdater writes colors to the project service.
type ColorUpdater interface {
	UpdateColor(ctx context.Context, id string, c model.Customization) error
}

// ProjectResolver finds a loaded project by key.
type ProjectResolver interface {
	Resolve(key model.ProjectKey) (model.Project, error)
}

// LocalStore is the custom_qr_map store.
type LocalStore interface {
	All() (*model.CustomizationMap, error)
	Get(key model.ProjectKey) (model.Customization, bool, error)
	Put(key model.ProjectKey, c model.Customization) error
	Delete(key model.ProjectKey) error
}

// Service is the customization state machine.
type Service struct {
	mode     Mode
	remote   ColorUpdater
	projects ProjectResolver
	local    LocalStore
	bus      *eventbus.Bus
}

// NewService creates a customization service.
func NewService(mode Mode, remote ColorUpdater, projects ProjectResolver, local LocalStore, bus *eventbus.Bus) *Service {
	return &Service{
		mode:     mode,
		remote:   remote,
		projects: projects,
		local:    local,
		bus:      bus,
	}
}

// Mode returns the storage mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// Load returns the current customization for key. An unknown project
// yields the defaults.
func (s *Service) Load(ctx context.Context, key model.ProjectKey) (model.Customization, error) {
	p, err := s.projects.Resolve(key)
	if err != nil {
		if errors.Is(err, qerrors.ErrNotFound) {
			logging.DebugContext(ctx, "customization target not loaded, using defaults",
				logging.KeyProject, key.String(),
			)
			return model.DefaultCustomization(), nil
		}
		return model.Customization{}, err
	}

	if s.mode == ModeServer {
		return p.Customization(), nil
	}

	c, ok, err := s.local.Get(p.Key())
	if err != nil {
		return model.Customization{}, qerrors.NewSystemErrorWithOp("load customization", "could not read local colors", err)
	}
	if !ok {
		return model.DefaultCustomization(), nil
	}
	return c.WithDefaults(), nil
}

// Save stores c for key and publishes one CustomizationUpdated event.
func (s *Service) Save(ctx context.Context, key model.ProjectKey, c model.Customization) error {
	if err := validate.HexColor("qr-color", c.QRColor); err != nil {
		return err
	}
	if err := validate.HexColor("bg-color", c.BGColor); err != nil {
		return err
	}
	c = c.WithDefaults()

	p, err := s.projects.Resolve(key)
	if err != nil {
		return err
	}

	switch s.mode {
	case ModeServer:
		if p.ID == "" {
			return &qerrors.UserError{
				Message:    "project has no id",
				Suggestion: "Refresh with 'qrdeck projects' or switch customization.mode to local",
				Cause:      qerrors.ErrInvalidKey,
			}
		}
		if err := s.remote.UpdateColor(ctx, p.ID, c); err != nil {
			return err
		}
	default:
		if c.IsDefault() {
			err = s.local.Delete(p.Key())
		} else {
			err = s.local.Put(p.Key(), c)
		}
		if err != nil {
			return qerrors.NewSystemErrorWithOp("save customization", "could not write local colors", err)
		}
	}

	delivered := eventbus.Publish(s.bus, eventbus.CustomizationUpdated, p.Key())
	logging.InfoContext(ctx, "customization saved",
		logging.KeyProject, p.Key().String(),
		"state", StateOf(c).String(),
		logging.KeyCount, delivered,
	)
	return nil
}

// Reset restores the default colors.
func (s *Service) Reset(ctx context.Context, key model.ProjectKey) error {
	return s.Save(ctx, key, model.DefaultCustomization())
}

// Forget drops any local override for p. Used after a project is deleted.
func (s *Service) Forget(p model.Project) error {
	return s.local.Delete(p.Key())
}

// Apply overlays local overrides on projects. In server mode projects are
// returned unchanged.
func (s *Service) Apply(projects []model.Project) ([]model.Project, error) {
	if s.mode != ModeLocal {
		return projects, nil
	}
	overrides, err := s.local.All()
	if err != nil {
		return nil, err
	}

	out := make([]model.Project, len(projects))
	for i, p := range projects {
		if c, ok := overrides.Entries[p.Key().Composite()]; ok {
			c = c.WithDefaults()
			p.QRColor, p.BGColor = c.QRColor, c.BGColor
		}
		out[i] = p
	}
	return out, nil
}
