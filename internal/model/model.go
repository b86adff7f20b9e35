// Package model defines the domain models for qrdeck.
package model

// Model is the interface that all database models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// Fixed keys used by the local cache store.
const (
	KeyProjectCache     = "qr_cache"
	KeyCustomizationMap = "custom_qr_map"
	KeyActiveProject    = "active_project"
)

// KeyPrefix constants used by the reference backend store.
const (
	PrefixServerProject = "srv:project"
	PrefixServerScan    = "srv:scan"
)
