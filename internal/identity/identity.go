// Package identity resolves a project key against a project list.
//
// Two strategies exist. Explicit resolves by the id the backend (or
// NewID) assigned and is the default. Derived matches on name and text and
// returns the first hit in list order; it exists for keys written before
// ids were stored locally and is ambiguous when two projects share both
// fields.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
)

// Strategy selects how keys are matched.
type Strategy string

const (
	StrategyExplicit Strategy = "explicit"
	StrategyDerived  Strategy = "derived"
)

// ErrNotFound is returned when no project matches. It matches the
// taxonomy's ErrNotFound.
var ErrNotFound = qerrors.ErrNotFound

// ErrMissingID is returned by the explicit strategy for a key without an id.
var ErrMissingID = errors.New("project key has no id")

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyExplicit:
		return StrategyExplicit, nil
	case StrategyDerived:
		return StrategyDerived, nil
	}
	return "", fmt.Errorf("unknown identity strategy %q (want %q or %q)", s, StrategyExplicit, StrategyDerived)
}

// Resolver finds projects by key.
type Resolver struct {
	strategy Strategy
}

// NewResolver creates a resolver using strategy.
func NewResolver(strategy Strategy) *Resolver {
	return &Resolver{strategy: strategy}
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Resolve returns the project key refers to.
func (r *Resolver) Resolve(projects []model.Project, key model.ProjectKey) (model.Project, error) {
	switch r.strategy {
	case StrategyDerived:
		return resolveDerived(projects, key)
	default:
		return resolveExplicit(projects, key)
	}
}

// ParseKey turns CLI input into a key for the configured strategy.
// Explicit mode takes the input as an id; derived mode expects name|text.
func (r *Resolver) ParseKey(input string) (model.ProjectKey, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return model.ProjectKey{}, qerrors.ErrInvalidKey
	}
	if r.strategy == StrategyDerived {
		key, err := model.ParseCompositeKey(input)
		if err != nil {
			return model.ProjectKey{}, &qerrors.UserError{
				Message: err.Error(),
				Field:   "key",
				Value:   input,
				Cause:   qerrors.ErrInvalidKey,
			}
		}
		return key, nil
	}
	return model.ProjectKey{ID: input}, nil
}

func resolveExplicit(projects []model.Project, key model.ProjectKey) (model.Project, error) {
	if key.ID == "" {
		return model.Project{}, ErrMissingID
	}
	for _, p := range projects {
		if p.ID == key.ID {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("id %s: %w", key.ID, ErrNotFound)
}

func resolveDerived(projects []model.Project, key model.ProjectKey) (model.Project, error) {
	var (
		found   model.Project
		matches int
	)
	for _, p := range projects {
		if p.Name == key.Name && p.Text == key.Text {
			if matches == 0 {
				found = p
			}
			matches++
		}
	}
	if matches == 0 {
		return model.Project{}, fmt.Errorf("%s: %w", key.Composite(), ErrNotFound)
	}
	if matches > 1 {
		logging.Warn("ambiguous project key, using first match",
			logging.KeyProject, key.Composite(),
			logging.KeyCount, matches,
		)
	}
	return found, nil
}

// NewID returns a client-side project id: unix milliseconds, a dash and a
// random UUID.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}
