// Package errors provides the error taxonomy for qrdeck.
//
// Remote failures are split into network failures, server rejections and
// malformed responses; identity lookups fail with ErrNotFound; QR rendering
// fails with ErrCaptureFailure. UserError and SystemError carry user-facing
// context for CLI output.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrServerRejection   = errors.New("server rejected request")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNotFound          = errors.New("project not found")
	ErrCaptureFailure    = errors.New("QR capture failed")
	ErrCircuitOpen       = errors.New("backend temporarily unavailable")
	ErrInvalidColor      = errors.New("invalid color format")
	ErrInvalidKey        = errors.New("invalid project key")
	ErrDiskFull          = errors.New("disk full")
	ErrStoreCorrupted    = errors.New("local store corrupted")
)

// GenericNotice is shown when the server rejects a request without a message.
const GenericNotice = "Try again later"

// ServerError is a non-2xx response from the remote project service.
type ServerError struct {
	Op      string // The client operation, e.g. "save-project"
	Status  int    // HTTP status code
	Message string // Server-provided message, may be empty
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
}

// Unwrap makes ServerError match ErrServerRejection.
func (e *ServerError) Unwrap() error {
	return ErrServerRejection
}

// Notice returns the user-facing text for the rejection.
func (e *ServerError) Notice() string {
	if e.Message != "" {
		return e.Message
	}
	return GenericNotice
}

// AsServerError extracts a ServerError from an error chain.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	ok := errors.As(err, &se)
	return se, ok
}

// UserError represents an error that the user can fix.
// Examples: invalid input, missing required arguments, incorrect format.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Field      string // The field/input that caused the error (optional)
	Value      string // The invalid value (optional)
	Cause      error  // Sentinel this error refines (optional)
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Field != "" && e.Value != "" {
		msg = fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a new UserError with field context.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// SystemError represents a system-level error that the user cannot directly fix.
// Examples: disk full, storage corruption.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// NewSystemErrorWithOp creates a new SystemError with operation context.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
		Op:      op,
	}
}

// IsUserError checks if an error is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// Network wraps a transport error so it matches ErrNetworkFailure.
func Network(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNetworkFailure, err)
}

// Malformed wraps a decode error so it matches ErrMalformedResponse.
func Malformed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrMalformedResponse, err)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is is re-exported from the standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported from the standard errors package for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
