// Package qrcode decides what a project's QR encodes and renders it.
// Symbol encoding itself is done by github.com/skip2/go-qrcode.
package qrcode

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/remote"
)

// Mode selects the encoded value.
type Mode string

const (
	// ModeTracked encodes the backend redirect so scans are counted.
	ModeTracked Mode = "tracked"
	// ModeDirect encodes the project text as-is.
	ModeDirect Mode = "direct"
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTracked:
		return ModeTracked, nil
	case ModeDirect:
		return ModeDirect, nil
	}
	return "", fmt.Errorf("unknown QR mode %q (want %q or %q)", s, ModeTracked, ModeDirect)
}

// Value returns the string to encode for p. Tracked mode needs an id;
// without one the raw text is used.
func Value(baseURL string, p model.Project, mode Mode) string {
	if mode == ModeTracked && p.ID != "" {
		return remote.TrackURL(baseURL, p.ID)
	}
	return p.Text
}

var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// IsURL reports whether text starts with http:// or https://.
func IsURL(text string) bool {
	return urlPattern.MatchString(text)
}

// LinkToOpen returns a URL a browser can open for text: text itself when
// it is a URL, otherwise a web search for it.
func LinkToOpen(text string) string {
	if IsURL(text) {
		return text
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(text)
}
