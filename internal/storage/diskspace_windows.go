//go:build windows

package storage

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

var (
	kernel32            = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpaceExW = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// errDiskFull is ERROR_DISK_FULL.
const errDiskFull = syscall.Errno(112)

// freeBytes returns the space available to the current user on the volume
// holding dir.
func freeBytes(dir string) (uint64, error) {
	pathPtr, err := syscall.UTF16PtrFromString(existingParent(dir))
	if err != nil {
		return 0, fmt.Errorf("failed to convert path: %w", err)
	}

	var available, total, totalFree uint64
	ret, _, err := getDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&available)),
		uintptr(unsafe.Pointer(&total)),
		uintptr(unsafe.Pointer(&totalFree)),
	)
	if ret == 0 {
		return 0, fmt.Errorf("failed to get disk space: %w", err)
	}
	return available, nil
}

func isDiskFullError(err error) bool {
	return errors.Is(err, errDiskFull)
}
