package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
)

// integritySample is how many values CheckIntegrity reads.
const integritySample = 100

// corruptionPatterns are badger error fragments that mean the files on disk
// cannot be trusted.
var corruptionPatterns = []string{
	"checksum mismatch",
	"corrupt",
	"unexpected eof",
	"bad magic",
	"truncated",
}

// CheckIntegrity reads a sample of values and reports the first failure
// as ErrStoreCorrupted.
func CheckIntegrity(db *DB) error {
	if db == nil || db.db == nil {
		return fmt.Errorf("database not initialized: %w", qerrors.ErrStoreCorrupted)
	}

	return db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		count := 0
		for it.Rewind(); it.Valid() && count < integritySample; it.Next() {
			item := it.Item()
			if err := item.Value(func([]byte) error { return nil }); err != nil {
				return fmt.Errorf("value at %s unreadable: %w: %w", item.Key(), qerrors.ErrStoreCorrupted, err)
			}
			count++
		}
		return nil
	})
}

// IsCorrupted reports whether err means the store files are damaged.
func IsCorrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, qerrors.ErrStoreCorrupted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range corruptionPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// quarantine moves a damaged store aside and returns its new location.
func quarantine(path string, now time.Time) (string, error) {
	target := fmt.Sprintf("%s.corrupt-%s", path, now.UTC().Format("20060102T150405"))
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move damaged store aside: %w", err)
	}
	return target, nil
}

// OpenWithRecovery opens the store like Open. A damaged on-disk store is
// moved aside and a fresh one is created in its place; the returned path
// is where the damaged copy went, empty when nothing was moved.
func OpenWithRecovery(opts Options) (*DB, string, error) {
	db, err := Open(opts)
	if err == nil {
		err = CheckIntegrity(db)
		if err == nil {
			return db, "", nil
		}
		db.Close()
	}
	if opts.InMemory || opts.Path == "" || !IsCorrupted(err) {
		return nil, "", err
	}

	moved, qerr := quarantine(opts.Path, time.Now())
	if qerr != nil {
		return nil, "", fmt.Errorf("%w (%v)", err, qerr)
	}

	db, err = Open(opts)
	if err != nil {
		return nil, moved, err
	}
	return db, moved, nil
}
