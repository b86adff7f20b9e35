package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/model"
)

// Helper to create an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	db, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// =============================================================================
// DB Tests
// =============================================================================

func TestOpenClose(t *testing.T) {
	t.Run("in_memory", func(t *testing.T) {
		db, err := Open(Options{InMemory: true})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		assert.NoError(t, db.Close())
	})

	t.Run("empty_path_uses_in_memory", func(t *testing.T) {
		db, err := Open(Options{Path: ""})
		require.NoError(t, err)
		assert.Equal(t, "", db.Path())
		db.Close()
	})

	t.Run("on_disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "db")
		db, err := Open(Options{Path: path})
		require.NoError(t, err)
		assert.Equal(t, path, db.Path())
		require.NoError(t, db.Close())
		assert.DirExists(t, path)
	})
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.Contains(t, path, AppName)
	assert.True(t, strings.HasSuffix(path, "db"))
}

func TestBytesAndPrefix(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SetBytes("p:a", []byte("1")))
	require.NoError(t, db.SetBytes("p:b", []byte("2")))
	require.NoError(t, db.SetBytes("q:c", []byte("3")))

	data, err := db.GetBytes("p:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), data)

	keys, err := db.ListByPrefix("p:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:a", "p:b"}, keys)

	require.NoError(t, db.DeleteByPrefix("p:"))
	exists, err := db.Exists("p:a")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = db.Exists("q:c")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = db.GetBytes("missing")
	assert.True(t, IsErrKeyNotFound(err))
}

// =============================================================================
// Project Cache Tests
// =============================================================================

func TestProjectCacheMissingIsEmpty(t *testing.T) {
	repo := NewProjectCacheRepo(setupTestDB(t))

	cache, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Projects)
	assert.True(t, cache.FetchedAt.IsZero())
}

func TestProjectCacheReplaceOverwrites(t *testing.T) {
	repo := NewProjectCacheRepo(setupTestDB(t))
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, repo.Replace([]model.Project{
		{ID: "a", Name: "Home", Text: "https://example.com"},
		{ID: "b", Name: "Menu", Text: "menu"},
	}, first))
	require.NoError(t, repo.Replace([]model.Project{
		{ID: "c", Name: "Wifi", Text: "wifi"},
	}, second))

	cache, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, cache.Projects, 1)
	assert.Equal(t, "c", cache.Projects[0].ID)
	assert.True(t, second.Equal(cache.FetchedAt))

	require.NoError(t, repo.Replace(nil, second))
	cache, err = repo.Load()
	require.NoError(t, err)
	assert.NotNil(t, cache.Projects)
	assert.Empty(t, cache.Projects)
}

func TestProjectCacheClear(t *testing.T) {
	repo := NewProjectCacheRepo(setupTestDB(t))
	require.NoError(t, repo.Replace([]model.Project{{ID: "a", Name: "Home", Text: "x"}}, time.Now()))
	require.NoError(t, repo.Clear())

	cache, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Projects)
}

// =============================================================================
// Customization Map Tests
// =============================================================================

func TestCustomizationRepo(t *testing.T) {
	repo := NewCustomizationRepo(setupTestDB(t))
	home := model.ProjectKey{ID: "a", Name: "Home", Text: "https://example.com"}
	menu := model.ProjectKey{Name: "Menu", Text: "menu"}

	_, ok, err := repo.Get(home)
	require.NoError(t, err)
	assert.False(t, ok)

	red := model.Customization{QRColor: "#ff0000", BGColor: "#ffffff"}
	require.NoError(t, repo.Put(home, red))
	require.NoError(t, repo.Put(menu, model.Customization{QRColor: "#00ff00", BGColor: "#000000"}))

	// Entries are keyed by name|text, so an id-less key finds the same entry.
	got, ok, err := repo.Get(model.ProjectKey{Name: "Home", Text: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, red, got)

	all, err := repo.All()
	require.NoError(t, err)
	assert.Len(t, all.Entries, 2)
	assert.Contains(t, all.Entries, "Menu|menu")

	require.NoError(t, repo.Delete(home))
	require.NoError(t, repo.Delete(home))
	_, ok, err = repo.Get(home)
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// Active Project Tests
// =============================================================================

func TestActiveProjectRepo(t *testing.T) {
	repo := NewActiveProjectRepo(setupTestDB(t))

	active, err := repo.Get()
	require.NoError(t, err)
	assert.Nil(t, active)

	p := model.Project{ID: "a", Name: "Home", Text: "https://example.com", QRColor: "#123456"}
	require.NoError(t, repo.Set(p))

	active, err = repo.Get()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, p, *active)

	require.NoError(t, repo.Clear())
	active, err = repo.Get()
	require.NoError(t, err)
	assert.Nil(t, active)
}

// =============================================================================
// Backend Repo Tests
// =============================================================================

func TestBackendRepoCRUD(t *testing.T) {
	repo := NewBackendRepo(setupTestDB(t))

	list, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Put(model.Project{ID: "a", Name: "Home", Text: "x"}))
	require.NoError(t, repo.Put(model.Project{ID: "b", Name: "Menu", Text: "y"}))
	require.NoError(t, repo.Put(model.Project{ID: "a", Name: "House", Text: "x"}))

	list, err = repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := repo.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "House", got.Name)

	require.NoError(t, repo.Delete("a"))
	_, err = repo.Get("a")
	assert.True(t, IsErrKeyNotFound(err))

	err = repo.Delete("a")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBackendRepoScans(t *testing.T) {
	repo := NewBackendRepo(setupTestDB(t))
	require.NoError(t, repo.Put(model.Project{ID: "a", Name: "Home", Text: "x"}))
	require.NoError(t, repo.Put(model.Project{ID: "ab", Name: "Other", Text: "y"}))

	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	// Recorded out of order; the log comes back by time.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		at := base.Add(offset)
		_, err := repo.RecordScan("a", model.ScanEvent{Timestamp: at.Format(time.RFC3339)}, at)
		require.NoError(t, err)
	}
	updated, err := repo.RecordScan("ab", model.ScanEvent{Timestamp: base.Format(time.RFC3339)}, base)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.ScanCount)

	scans, err := repo.Scans("a")
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, "2024-01-02T10:00:00Z", scans[0].Timestamp)
	assert.Equal(t, "2024-01-02T10:02:00Z", scans[2].Timestamp)

	got, err := repo.Get("a")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ScanCount)

	_, err = repo.RecordScan("missing", model.ScanEvent{}, base)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, repo.Delete("a"))
	scans, err = repo.Scans("a")
	require.NoError(t, err)
	assert.Empty(t, scans)

	scans, err = repo.Scans("ab")
	require.NoError(t, err)
	assert.Len(t, scans, 1)
}

func TestBackendRepoConcurrentScans(t *testing.T) {
	repo := NewBackendRepo(setupTestDB(t))
	require.NoError(t, repo.Put(model.Project{ID: "a", Name: "Home", Text: "x"}))

	const scans = 50
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	errs := make(chan error, scans)
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := base.Add(time.Duration(i) * time.Second)
			_, err := repo.RecordScan("a", model.ScanEvent{Timestamp: at.Format(time.RFC3339)}, at)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Get("a")
	require.NoError(t, err)
	assert.EqualValues(t, scans, got.ScanCount)

	events, err := repo.Scans("a")
	require.NoError(t, err)
	assert.Len(t, events, scans)
}

// =============================================================================
// File and Recovery Tests
// =============================================================================

func TestSafeWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "code.png")

	require.NoError(t, SafeWrite(path, []byte("first"), 0o644))
	require.NoError(t, SafeWrite(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	err = SafeWrite(filepath.Join(dir, "missing", "code.png"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestExistingParent(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, existingParent(filepath.Join(dir, "a", "b")))
	assert.Equal(t, dir, existingParent(dir))
}

func TestIsCorrupted(t *testing.T) {
	assert.False(t, IsCorrupted(nil))
	assert.True(t, IsCorrupted(qerrors.ErrStoreCorrupted))
	assert.True(t, IsCorrupted(errors.New("checksum mismatch at offset 12")))
	assert.False(t, IsCorrupted(os.ErrPermission))
}

func TestCheckIntegrity(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.SetBytes("k", []byte("v")))
	assert.NoError(t, CheckIntegrity(db))
	assert.ErrorIs(t, CheckIntegrity(nil), qerrors.ErrStoreCorrupted)
}

func TestOpenWithRecoveryHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, moved, err := OpenWithRecovery(Options{Path: path})
	require.NoError(t, err)
	defer db.Close()
	assert.Empty(t, moved)
}

func TestQuarantine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	require.NoError(t, os.MkdirAll(path, 0o700))

	moved, err := quarantine(path, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, path+".corrupt-20240102T030405", moved)
	assert.DirExists(t, moved)
	assert.NoDirExists(t, path)
}
