package runtime

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/output"
)

// ErrNoActiveProject is returned when a command needs the last viewed
// project and none was stored.
var ErrNoActiveProject = errors.New("no active project")

// FormatError formats an error for the terminal, with a suggestion when
// one is known.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return qerrors.FormatByCategory(err)
}

// ErrorOutput converts an error into its JSON representation.
func ErrorOutput(err error) output.ErrorResponse {
	return output.ErrorResponse{
		Status:     "error",
		Error:      err.Error(),
		Category:   qerrors.Classify(err).String(),
		Message:    qerrors.Notice(err),
		Suggestion: qerrors.GetSuggestion(err),
	}
}

// DiskFullError represents a disk full condition with additional context.
type DiskFullError struct {
	Op      string // The operation that failed (e.g., "write", "open database")
	Path    string // The path involved, if known
	wrapped error  // The underlying error
}

func (e *DiskFullError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk full during %s on %s: %v", e.Op, e.Path, e.wrapped)
	}
	return fmt.Sprintf("disk full during %s: %v", e.Op, e.wrapped)
}

func (e *DiskFullError) Unwrap() error {
	return qerrors.ErrDiskFull
}

// NewDiskFullError creates a new DiskFullError.
func NewDiskFullError(op, path string, err error) *DiskFullError {
	return &DiskFullError{
		Op:      op,
		Path:    path,
		wrapped: err,
	}
}

// IsDiskFullError checks if an error indicates a disk full condition.
// It checks for ENOSPC and common disk full error patterns.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, qerrors.ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"no space left on device",
		"disk full",
		"not enough space",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// WrapDiskFullError wraps an error as a DiskFullError if it indicates disk full.
// If the error is not a disk full error, it returns the original error unchanged.
func WrapDiskFullError(err error, op, path string) error {
	if err == nil {
		return nil
	}
	if IsDiskFullError(err) {
		return NewDiskFullError(op, path, err)
	}
	return err
}
