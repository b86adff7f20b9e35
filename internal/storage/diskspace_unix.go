//go:build !windows

package storage

import (
	"errors"
	"fmt"
	"syscall"
)

// freeBytes returns the space available to the current user on the
// filesystem holding dir.
func freeBytes(dir string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(existingParent(dir), &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk space: %w", err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

func isDiskFullError(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}
