package server

import (
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// RouteHealth reports service health and counters.
const RouteHealth = "/healthz"

// Metrics counts what the service has done since it started.
type Metrics struct {
	scansTracked atomic.Int64
	scansUnknown atomic.Int64
	errorsTotal  atomic.Int64

	mu          sync.RWMutex
	lastScanAt  time.Time
	lastError   string
	lastErrorAt time.Time
	errorsByOp  map[string]int64
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{errorsByOp: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	ScansTrackedTotal int64            `json:"scans_tracked_total"`
	ScansUnknownTotal int64            `json:"scans_unknown_total"`
	ErrorsTotal       int64            `json:"errors_total"`
	LastScanAt        *time.Time       `json:"last_scan_at,omitempty"`
	LastError         string           `json:"last_error,omitempty"`
	LastErrorAt       *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByOp        map[string]int64 `json:"errors_by_op,omitempty"`
}

// RecordScan counts a scan of a known project.
func (m *Metrics) RecordScan(at time.Time) {
	m.scansTracked.Add(1)
	m.mu.Lock()
	m.lastScanAt = at
	m.mu.Unlock()
}

// RecordUnknownScan counts a scan of a project that does not exist.
func (m *Metrics) RecordUnknownScan() {
	m.scansUnknown.Add(1)
}

// RecordError counts a failed operation.
func (m *Metrics) RecordError(op string, err error, at time.Time) {
	m.errorsTotal.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorsByOp[op]++
	m.lastError = err.Error()
	m.lastErrorAt = at
}

// Snapshot returns a copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		ScansTrackedTotal: m.scansTracked.Load(),
		ScansUnknownTotal: m.scansUnknown.Load(),
		ErrorsTotal:       m.errorsTotal.Load(),
		LastError:         m.lastError,
	}
	if !m.lastScanAt.IsZero() {
		t := m.lastScanAt
		snap.LastScanAt = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		snap.LastErrorAt = &t
	}
	if len(m.errorsByOp) > 0 {
		snap.ErrorsByOp = make(map[string]int64, len(m.errorsByOp))
		for op, n := range m.errorsByOp {
			snap.ErrorsByOp[op] = n
		}
	}
	return snap
}

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Projects      int             `json:"projects"`
	Goroutines    int             `json:"goroutines"`
	Error         string          `json:"error,omitempty"`
	Metrics       MetricsSnapshot `json:"metrics"`
}

// handleHealth reports healthy when the store can be read.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(s.opts.Now().Sub(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Metrics:       s.metrics.Snapshot(),
	}

	code := http.StatusOK
	projects, err := s.store.List()
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	status.Projects = len(projects)

	writeJSON(w, code, status)
}
