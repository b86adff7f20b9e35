package storage

import (
	"time"

	"github.com/qrdeck/qrdeck/internal/model"
)

// ProjectCacheRepo provides access to the qr_cache mirror of the remote list.
type ProjectCacheRepo struct {
	db *DB
}

// NewProjectCacheRepo creates a new project cache repository.
func NewProjectCacheRepo(db *DB) *ProjectCacheRepo {
	return &ProjectCacheRepo{db: db}
}

// Load returns the cached list. A missing cache yields an empty record.
func (r *ProjectCacheRepo) Load() (*model.ProjectCache, error) {
	cache := model.NewProjectCache(nil, time.Time{})
	if err := r.db.Get(model.KeyProjectCache, cache); err != nil {
		if IsErrKeyNotFound(err) {
			return model.NewProjectCache(nil, time.Time{}), nil
		}
		return nil, err
	}
	if cache.Projects == nil {
		cache.Projects = []model.Project{}
	}
	return cache, nil
}

// Replace overwrites the whole cache with projects. Nothing from the
// previous value survives.
func (r *ProjectCacheRepo) Replace(projects []model.Project, fetchedAt time.Time) error {
	return r.db.Set(model.NewProjectCache(projects, fetchedAt))
}

// Clear removes the cached list.
func (r *ProjectCacheRepo) Clear() error {
	return r.db.Delete(model.KeyProjectCache)
}
