package storage

import (
	"github.com/qrdeck/qrdeck/internal/model"
)

// ActiveProjectRepo provides operations for the active_project singleton.
type ActiveProjectRepo struct {
	db *DB
}

// NewActiveProjectRepo creates a new active project repository.
func NewActiveProjectRepo(db *DB) *ActiveProjectRepo {
	return &ActiveProjectRepo{db: db}
}

// Get retrieves the active project, or nil if none is set.
func (r *ActiveProjectRepo) Get() (*model.Project, error) {
	active := model.NewActiveProject(model.Project{})
	if err := r.db.Get(model.KeyActiveProject, active); err != nil {
		if IsErrKeyNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	p := active.Project
	return &p, nil
}

// Set stores p as the active project.
func (r *ActiveProjectRepo) Set(p model.Project) error {
	return r.db.Set(model.NewActiveProject(p))
}

// Clear removes the active project.
func (r *ActiveProjectRepo) Clear() error {
	return r.db.Delete(model.KeyActiveProject)
}
