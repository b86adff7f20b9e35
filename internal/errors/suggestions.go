package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrNetworkFailure:    "Check your connection or the backend.url setting. Cached projects are still available.",
	ErrCircuitOpen:       "The backend failed repeatedly; qrdeck will try it again shortly.",
	ErrMalformedResponse: "The backend returned an unexpected payload. Check backend.url points at a qrdeck-compatible service.",
	ErrNotFound:          "Use 'qrdeck projects' to see available projects.",
	ErrCaptureFailure:    "The payload may be too long to encode. Shorten the text and try again.",
	ErrInvalidColor:      "Use hex color format like '#FF5733' or '#00FF00'.",
	ErrInvalidKey:        "Pass a project id, or name|text when identity.strategy is 'derived'.",
	ErrDiskFull:          "Free up disk space and try again.",
	ErrStoreCorrupted:    "Move the database directory aside (see storage.path) and run the command again.",
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}
