package model

import (
	"time"
)

// ProjectCache is the last-known project list stored under qr_cache.
type ProjectCache struct {
	Key       string    `json:"-"`
	Projects  []Project `json:"projects"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SetKey sets the database key for this cache record.
func (c *ProjectCache) SetKey(key string) {
	c.Key = key
}

// GetKey returns the database key for this cache record.
func (c *ProjectCache) GetKey() string {
	return c.Key
}

// NewProjectCache creates a cache record holding a copy of projects.
func NewProjectCache(projects []Project, fetchedAt time.Time) *ProjectCache {
	list := make([]Project, len(projects))
	copy(list, projects)
	return &ProjectCache{
		Key:       KeyProjectCache,
		Projects:  list,
		FetchedAt: fetchedAt,
	}
}

// ActiveProject is the currently viewed project, kept for cross-screen continuity.
type ActiveProject struct {
	Key string `json:"-"`
	Project
}

// SetKey sets the database key for this active project record.
func (a *ActiveProject) SetKey(key string) {
	a.Key = key
}

// GetKey returns the database key for this active project record.
func (a *ActiveProject) GetKey() string {
	return a.Key
}

// NewActiveProject wraps a project for storage under active_project.
func NewActiveProject(p Project) *ActiveProject {
	return &ActiveProject{Key: KeyActiveProject, Project: p}
}
