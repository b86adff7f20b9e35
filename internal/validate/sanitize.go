package validate

import (
	"strings"
	"unicode"
)

// SanitizeProjectName cleans a project name for safe use.
func SanitizeProjectName(name string) string {
	name = strings.TrimSpace(name)

	var sb strings.Builder
	for _, r := range name {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// StripControlChars removes all control characters from a string.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SafeFilename converts a string to a safe filename.
func SafeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"\x00", "",
	)
	s = replacer.Replace(s)

	// Trim whitespace and dots from ends
	s = strings.Trim(s, " ._")

	if len(s) > 200 {
		s = s[:200]
	}

	return s
}
