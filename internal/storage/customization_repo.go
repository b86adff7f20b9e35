package storage

import (
	"github.com/qrdeck/qrdeck/internal/model"
)

// CustomizationRepo stores per-project color overrides under custom_qr_map,
// keyed by the name|text composite.
type CustomizationRepo struct {
	db *DB
}

// NewCustomizationRepo creates a new customization repository.
func NewCustomizationRepo(db *DB) *CustomizationRepo {
	return &CustomizationRepo{db: db}
}

// All returns the whole mapping, empty when nothing was saved yet.
func (r *CustomizationRepo) All() (*model.CustomizationMap, error) {
	m := model.NewCustomizationMap()
	if err := r.db.Get(model.KeyCustomizationMap, m); err != nil {
		if IsErrKeyNotFound(err) {
			return model.NewCustomizationMap(), nil
		}
		return nil, err
	}
	return m, nil
}

// Get returns the override for key and whether one exists.
func (r *CustomizationRepo) Get(key model.ProjectKey) (model.Customization, bool, error) {
	m, err := r.All()
	if err != nil {
		return model.Customization{}, false, err
	}
	c, ok := m.Entries[key.Composite()]
	return c, ok, nil
}

// Put creates or overwrites the override for key.
func (r *CustomizationRepo) Put(key model.ProjectKey, c model.Customization) error {
	m, err := r.All()
	if err != nil {
		return err
	}
	m.Entries[key.Composite()] = c
	return r.db.Set(m)
}

// Delete removes the override for key, if any.
func (r *CustomizationRepo) Delete(key model.ProjectKey) error {
	m, err := r.All()
	if err != nil {
		return err
	}
	if _, ok := m.Entries[key.Composite()]; !ok {
		return nil
	}
	delete(m.Entries, key.Composite())
	return r.db.Set(m)
}
