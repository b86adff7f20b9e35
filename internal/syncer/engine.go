// Package syncer keeps the local project list in step with the project
// service.
//
// A refresh fetches the whole list and, on success, overwrites the local
// cache with it. When the fetch fails the last cached list is served
// instead and the result is marked stale. Refreshes may overlap; each one
// takes a generation number and a result older than the one already
// applied is thrown away.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
)

// ErrSuperseded is returned when a newer refresh was applied while this
// one was in flight.
var ErrSuperseded = errors.New("refresh superseded by a newer one")

// Lister fetches the canonical project list.
type Lister interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Cache is the local mirror of the last successful fetch.
type Cache interface {
	Load() (*model.ProjectCache, error)
	Replace(projects []model.Project, fetchedAt time.Time) error
}

// Result is the outcome of a refresh.
type Result struct {
	Projects   []model.Project `json:"projects"`
	Fresh      bool            `json:"fresh"`
	Generation uint64          `json:"generation"`
	FetchedAt  time.Time       `json:"fetchedAt"`
	// Cause is the fetch error that led to a cached result.
	Cause error `json:"-"`
	// CacheErr is set when a fresh list could not be written to the cache,
	// so a later offline fallback will serve older data.
	CacheErr error `json:"-"`
}

// Engine owns the in-memory project list.
type Engine struct {
	lister   Lister
	cache    Cache
	resolver *identity.Resolver
	now      func() time.Time

	issued atomic.Uint64

	mu        sync.Mutex
	applied   uint64
	projects  []model.Project
	fresh     bool
	fetchedAt time.Time
}

// New creates an engine.
func New(lister Lister, cache Cache, resolver *identity.Resolver) *Engine {
	return &Engine{
		lister:   lister,
		cache:    cache,
		resolver: resolver,
		now:      time.Now,
		projects: []model.Project{},
	}
}

// Warm loads the cached list into memory without fetching, so a view can
// show something before the first refresh returns.
func (e *Engine) Warm() error {
	cached, err := e.cache.Load()
	if err != nil {
		return qerrors.NewSystemErrorWithOp("load cache", "could not read cached projects", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.applied > 0 {
		return nil
	}
	e.projects = cached.Projects
	e.fresh = false
	e.fetchedAt = cached.FetchedAt
	return nil
}

// Refresh fetches the list and applies it. Fetch failures fall back to the
// cache and are not returned; the error is reserved for cache failures,
// cancellation and ErrSuperseded. A superseded call still returns the data
// it discarded.
func (e *Engine) Refresh(ctx context.Context) (Result, error) {
	gen := e.issued.Add(1)
	start := time.Now()

	projects, fetchErr := e.lister.ListProjects(ctx)
	if err := ctx.Err(); err != nil {
		logging.DebugContext(ctx, "refresh discarded",
			logging.KeyGeneration, gen,
			logging.KeyError, err.Error(),
		)
		return Result{Generation: gen}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen < e.applied {
		logging.DebugContext(ctx, "refresh superseded",
			logging.KeyGeneration, gen,
			"applied", e.applied,
		)
		return Result{Projects: projects, Fresh: fetchErr == nil, Generation: gen, Cause: fetchErr},
			fmt.Errorf("generation %d: %w", gen, ErrSuperseded)
	}

	if fetchErr != nil {
		return e.fallback(ctx, gen, fetchErr)
	}

	if projects == nil {
		projects = []model.Project{}
	}
	fetchedAt := e.now().UTC()
	cacheErr := e.cache.Replace(projects, fetchedAt)
	if cacheErr != nil {
		logging.WarnContext(ctx, "cache write failed",
			logging.KeyOperation, "refresh",
			logging.KeyError, cacheErr.Error(),
		)
		cacheErr = qerrors.NewSystemErrorWithOp("write cache", "could not update cached projects", cacheErr)
	}

	e.apply(gen, projects, true, fetchedAt)
	logging.DebugContext(ctx, "refresh applied",
		logging.KeyGeneration, gen,
		logging.KeyCount, len(projects),
		logging.KeyDuration, time.Since(start).Milliseconds(),
	)
	res := e.result(nil)
	res.CacheErr = cacheErr
	return res, nil
}

// fallback serves the cached list. Caller holds e.mu.
func (e *Engine) fallback(ctx context.Context, gen uint64, fetchErr error) (Result, error) {
	level := logging.WarnContext
	if !qerrors.IsFallbackEligible(fetchErr) {
		level = logging.ErrorContext
	}
	level(ctx, "project fetch failed, using cache",
		logging.KeyGeneration, gen,
		logging.KeyError, fetchErr.Error(),
	)

	cached, err := e.cache.Load()
	if err != nil {
		return Result{Generation: gen, Cause: fetchErr},
			qerrors.NewSystemErrorWithOp("load cache", "could not read cached projects", err)
	}

	e.apply(gen, cached.Projects, false, cached.FetchedAt)
	return e.result(fetchErr), nil
}

// apply replaces the in-memory list. Caller holds e.mu.
func (e *Engine) apply(gen uint64, projects []model.Project, fresh bool, fetchedAt time.Time) {
	e.applied = gen
	e.projects = projects
	e.fresh = fresh
	e.fetchedAt = fetchedAt
}

// result snapshots the applied state. Caller holds e.mu.
func (e *Engine) result(cause error) Result {
	return Result{
		Projects:   clone(e.projects),
		Fresh:      e.fresh,
		Generation: e.applied,
		FetchedAt:  e.fetchedAt,
		Cause:      cause,
	}
}

// Filter returns the loaded projects whose name or text contains query,
// ignoring case. A blank query returns every project. It never fetches.
func (e *Engine) Filter(query string) []model.Project {
	all := e.Projects()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}

	out := make([]model.Project, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Text), q) {
			out = append(out, p)
		}
	}
	return out
}

// Projects returns a copy of the loaded list.
func (e *Engine) Projects() []model.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.projects)
}

// Stale reports whether the loaded list came from the cache.
func (e *Engine) Stale() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.fresh
}

// Generation returns the generation of the applied list, zero before the
// first refresh.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applied
}

// RefreshOne refreshes the list and resolves key against it. When another
// refresh won the race the list it applied is used.
func (e *Engine) RefreshOne(ctx context.Context, key model.ProjectKey) (model.Project, Result, error) {
	res, err := e.Refresh(ctx)
	switch {
	case errors.Is(err, ErrSuperseded):
		e.mu.Lock()
		res = e.result(res.Cause)
		e.mu.Unlock()
	case err != nil:
		return model.Project{}, res, err
	}

	p, err := e.resolver.Resolve(res.Projects, key)
	if err != nil {
		return model.Project{}, res, err
	}
	return p, res, nil
}

// Resolve looks key up in the loaded list without fetching.
func (e *Engine) Resolve(key model.ProjectKey) (model.Project, error) {
	return e.resolver.Resolve(e.Projects(), key)
}

// Resolver returns the identity resolver the engine uses.
func (e *Engine) Resolver() *identity.Resolver {
	return e.resolver
}

func clone(projects []model.Project) []model.Project {
	out := make([]model.Project, len(projects))
	copy(out, projects)
	return out
}
