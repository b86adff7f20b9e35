package storage

import (
	"errors"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/qrdeck/qrdeck/internal/model"
)

// BackendRepo persists canonical projects and scan logs for the reference
// backend. It shares the DB layout conventions of the client repos but lives
// under the srv: prefixes. Writes are serialized so concurrent scans of one
// project never lose an increment.
type BackendRepo struct {
	db *DB
	mu sync.Mutex
}

// maxConflictRetries bounds retries of a transaction that lost a write race
// with another process sharing the store.
const maxConflictRetries = 5

// NewBackendRepo creates a new backend repository.
func NewBackendRepo(db *DB) *BackendRepo {
	return &BackendRepo{db: db}
}

// List returns every stored project.
func (r *BackendRepo) List() ([]model.Project, error) {
	records, err := GetAllByPrefix(r.db, model.PrefixServerProject+":", func() *model.ProjectRecord {
		return &model.ProjectRecord{}
	})
	if err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(records))
	for _, rec := range records {
		projects = append(projects, rec.Project)
	}
	return projects, nil
}

// Get retrieves a project by id.
func (r *BackendRepo) Get(id string) (*model.Project, error) {
	rec := &model.ProjectRecord{}
	if err := r.db.Get(model.GenerateServerProjectKey(id), rec); err != nil {
		return nil, err
	}
	return &rec.Project, nil
}

// Put creates or replaces a project.
func (r *BackendRepo) Put(p model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Set(&model.ProjectRecord{Key: model.GenerateServerProjectKey(p.ID), Project: p})
}

// Delete removes a project and its scan log.
func (r *BackendRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exists, err := r.db.Exists(model.GenerateServerProjectKey(id))
	if err != nil {
		return err
	}
	if !exists {
		return ErrKeyNotFound
	}
	if err := r.db.DeleteByPrefix(model.ScanPrefix(id)); err != nil {
		return err
	}
	return r.db.Delete(model.GenerateServerProjectKey(id))
}

// RecordScan appends a scan event and increments the project's scan count
// in one transaction. It returns the updated project.
func (r *BackendRepo) RecordScan(id string, event model.ScanEvent, at time.Time) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		updated model.Project
		err     error
	)
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		updated, err = r.recordScan(id, event, at)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *BackendRepo) recordScan(id string, event model.ScanEvent, at time.Time) (model.Project, error) {
	var updated model.Project
	err := r.db.db.Update(func(txn *badger.Txn) error {
		projectKey := []byte(model.GenerateServerProjectKey(id))
		item, err := txn.Get(projectKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		rec := &model.ProjectRecord{}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		}); err != nil {
			return err
		}
		rec.ScanCount++

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := txn.Set(projectKey, data); err != nil {
			return err
		}

		scan := &model.ScanRecord{ProjectID: id, ScanEvent: event}
		scanData, err := json.Marshal(scan)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(model.GenerateScanKey(id, at, uuid.NewString()[:8])), scanData); err != nil {
			return err
		}

		updated = rec.Project
		return nil
	})
	return updated, err
}

// Scans returns a project's scan log in chronological order.
func (r *BackendRepo) Scans(id string) ([]model.ScanEvent, error) {
	records, err := GetAllByPrefix(r.db, model.ScanPrefix(id), func() *model.ScanRecord {
		return &model.ScanRecord{}
	})
	if err != nil {
		return nil, err
	}
	events := make([]model.ScanEvent, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.ScanEvent)
	}
	return events, nil
}
