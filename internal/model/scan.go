package model

import (
	"time"
)

// Location is the coarse geolocation attached to a scan.
type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// ScanEvent is one recorded resolution of a tracked QR. Events are immutable.
type ScanEvent struct {
	Timestamp string    `json:"timestamp"`
	UserAgent string    `json:"userAgent,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// Time parses the event timestamp.
func (e ScanEvent) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// ScanAnalytics is the per-project analytics payload.
type ScanAnalytics struct {
	ScanCount  int64       `json:"scanCount"`
	ScanEvents []ScanEvent `json:"scanEvents"`
}
