package errors

import (
	"context"
	"errors"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix or should be told about.
	CategoryUser
	// CategorySystem indicates a system-level error (disk full, bad payload).
	CategorySystem
	// CategoryRecoverable indicates a transient error; a later attempt may succeed.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, ErrNetworkFailure),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryRecoverable
	case errors.Is(err, ErrServerRejection),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCaptureFailure),
		IsUserError(err):
		return CategoryUser
	case errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrDiskFull),
		IsSystemError(err):
		return CategorySystem
	}

	return CategoryUnknown
}

// IsFallbackEligible reports whether a list fetch failure should be answered
// from the local cache instead of surfacing to the user.
func IsFallbackEligible(err error) bool {
	return errors.Is(err, ErrNetworkFailure) ||
		errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrServerRejection)
}

// Notice returns the user-visible notification text for err.
func Notice(err error) string {
	if err == nil {
		return ""
	}
	if se, ok := AsServerError(err); ok {
		return se.Notice()
	}
	switch {
	case errors.Is(err, ErrNetworkFailure), errors.Is(err, ErrCircuitOpen):
		return "Network error occurred"
	case errors.Is(err, ErrCaptureFailure):
		return "QR could not be captured"
	}
	return err.Error()
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := Notice(err)
	switch Classify(err) {
	case CategoryUser:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg
	case CategorySystem:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg
	case CategoryRecoverable:
		if suggestion := GetSuggestion(err); suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg
	default:
		return msg
	}
}
