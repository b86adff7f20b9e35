// Package server is a reference implementation of the remote project
// service. It backs `qrdeck serve` and the client integration tests.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/remote"
)

// Store is the persistence the service needs. storage.BackendRepo
// implements it.
type Store interface {
	List() ([]model.Project, error)
	Get(id string) (*model.Project, error)
	Put(p model.Project) error
	Delete(id string) error
	RecordScan(id string, event model.ScanEvent, at time.Time) (*model.Project, error)
	Scans(id string) ([]model.ScanEvent, error)
}

// Headers a fronting proxy may set to attach a location to scans.
const (
	HeaderGeoCity    = "X-Geo-City"
	HeaderGeoCountry = "X-Geo-Country"
)

// maxBodyBytes bounds request bodies; qrImage payloads are base64 PNGs.
const maxBodyBytes = 4 << 20

// Options configures the service.
type Options struct {
	// TrackRatePerMinute limits /track requests per client IP.
	TrackRatePerMinute int
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Server serves the project API over a Store.
type Server struct {
	store   Store
	opts    Options
	router  chi.Router
	metrics *Metrics
	started time.Time
}

// New creates a server and wires its routes.
func New(store Store, opts Options) *Server {
	if opts.TrackRatePerMinute <= 0 {
		opts.TrackRatePerMinute = 60
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{store: store, opts: opts, metrics: NewMetrics(), started: opts.Now()}
	s.router = s.routes()
	return s
}

// Metrics returns the service counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get(RouteHealth, s.handleHealth)
	r.Get(remote.RouteListProjects, s.handleListProjects)
	r.Post(remote.RouteSaveProject, s.handleSaveProject)
	r.Put(remote.RouteUpdateProject+"/{id}", s.handleUpdateProject)
	r.Put(remote.RouteUpdateColor+"/{id}", s.handleUpdateColor)
	r.Delete(remote.RouteDeleteProject+"/{id}", s.handleDeleteProject)
	r.Get(remote.RouteScanAnalytics+"/{id}", s.handleScanAnalytics)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.opts.TrackRatePerMinute, time.Minute))
		r.Get(remote.RouteTrack+"/{id}", s.handleTrack)
	})

	return r
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.NewRequestContext(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			logging.KeyStatus, ww.Status(),
			logging.KeyDuration, time.Since(start).Milliseconds(),
		)
	})
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log := logging.With("addr", addr)
	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("backend shutting down")
	return srv.Shutdown(shutdownCtx)
}
