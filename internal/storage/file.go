package storage

import (
	"fmt"
	"os"
	"path/filepath"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
)

// MinFreeSpace is the free space SafeWrite requires before writing.
const MinFreeSpace = 10 * 1024 * 1024

// checkDiskSpace fails with ErrDiskFull when dir's filesystem has less than
// need bytes free. Filesystems that cannot report free space pass.
func checkDiskSpace(dir string, need uint64) error {
	free, err := freeBytes(dir)
	if err != nil || free >= need {
		return nil
	}
	return qerrors.NewSystemErrorWithOp("check disk space",
		fmt.Sprintf("insufficient disk space: %d MB free, need %d MB", free/(1024*1024), need/(1024*1024)),
		qerrors.ErrDiskFull)
}

// existingParent walks up from path to the nearest directory that exists.
func existingParent(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

// SafeWrite writes data to path atomically: the bytes land in a temp file in
// the same directory which is then renamed over the target.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := checkDiskSpace(dir, MinFreeSpace+uint64(len(data))); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, ".qrdeck-*.tmp")
	if err != nil {
		if isDiskFullError(err) {
			return qerrors.NewSystemErrorWithOp("create temp file", "disk full", qerrors.ErrDiskFull)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Ensure cleanup on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		if isDiskFullError(err) {
			return qerrors.NewSystemErrorWithOp("write", "disk full", qerrors.ErrDiskFull)
		}
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
