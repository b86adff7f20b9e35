package model

import (
	"fmt"
	"time"
)

// ProjectRecord is a project as persisted by the reference backend.
type ProjectRecord struct {
	Key string `json:"-"`
	Project
}

// SetKey sets the database key for this record.
func (r *ProjectRecord) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this record.
func (r *ProjectRecord) GetKey() string {
	return r.Key
}

// GenerateServerProjectKey generates the backend key for a project id.
func GenerateServerProjectKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixServerProject, id)
}

// ScanRecord is a scan event as persisted by the reference backend.
type ScanRecord struct {
	Key       string `json:"-"`
	ProjectID string `json:"projectId"`
	ScanEvent
}

// SetKey sets the database key for this record.
func (r *ScanRecord) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this record.
func (r *ScanRecord) GetKey() string {
	return r.Key
}

// ScanPrefix returns the key prefix holding every scan of a project.
func ScanPrefix(projectID string) string {
	return fmt.Sprintf("%s:%s:", PrefixServerScan, projectID)
}

// GenerateScanKey generates a time-ordered backend key for a scan. The nonce
// keeps keys distinct when two scans share a timestamp.
func GenerateScanKey(projectID string, at time.Time, nonce string) string {
	// Zero-padded nanoseconds keep prefix iteration in chronological order.
	return fmt.Sprintf("%s%020d-%s", ScanPrefix(projectID), at.UnixNano(), nonce)
}
