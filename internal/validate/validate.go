// Package validate provides input validation helpers for the qrdeck CLI
// and the reference backend.
package validate

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/qrdeck/qrdeck/internal/errors"
)

const (
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
	// MaxProjectNameLength is the maximum length for a project name.
	MaxProjectNameLength = 128
	// MaxProjectTextLength is the maximum payload length encoded into a QR.
	MaxProjectTextLength = 2048
)

// ProjectName validates a project name.
func ProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewUserError("Project name cannot be empty", "Provide a project name")
	}
	if utf8.RuneCountInString(name) > MaxProjectNameLength {
		return errors.NewUserErrorWithField("name", name,
			"Project name too long",
			"Project names must be 128 characters or fewer")
	}
	return nil
}

// ProjectText validates the payload encoded into a QR.
func ProjectText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.NewUserError("QR text cannot be empty", "Provide a URL or text to encode")
	}
	if len(text) > MaxProjectTextLength {
		return errors.NewUserError("QR text too long",
			"QR payloads must be 2048 bytes or fewer")
	}
	return nil
}

// HexColor validates a hex color code.
func HexColor(field, color string) error {
	if color == "" {
		return nil // Empty means default
	}
	invalid := func(message, suggestion string) error {
		return &errors.UserError{
			Message:    message,
			Suggestion: suggestion,
			Field:      field,
			Value:      color,
			Cause:      errors.ErrInvalidColor,
		}
	}
	if !strings.HasPrefix(color, "#") {
		return invalid("Invalid color format", "Use hex format like '#FF5733' or '#00FF00'")
	}
	hex := strings.TrimPrefix(color, "#")
	if len(hex) != 6 {
		return invalid("Invalid color format", "Use 6-digit hex format like '#FF5733'")
	}
	for _, c := range hex {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return invalid("Invalid hex character in color", "Use only hex digits (0-9, A-F)")
		}
	}
	return nil
}

// URL validates a service base URL.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL format",
			"Provide a valid URL starting with https://")
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL scheme",
			"URLs must use https:// or http://")
	}

	if parsed.Hostname() == "" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL: missing hostname",
			"Provide a valid URL like https://qr.example.com")
	}

	return nil
}

// NonEmpty validates that a string is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}

// InRange validates that an integer is within a range.
func InRange(field string, value, min, max int) error {
	if value < min || value > max {
		return errors.NewUserErrorWithField(field, strconv.Itoa(value),
			"Value out of range",
			"Must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return nil
}
