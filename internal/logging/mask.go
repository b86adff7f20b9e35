package logging

import (
	"net/url"
	"strings"
)

const (
	// MaskChar is the character used for masking.
	MaskChar = "*"
	// DefaultMaskLength is how many mask characters to show.
	DefaultMaskLength = 3
)

// MaskURL keeps the scheme and host of a URL and masks path and query,
// which may carry user payloads.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.Repeat(MaskChar, DefaultMaskLength)
	}
	if u.Path == "" && u.RawQuery == "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/" + strings.Repeat(MaskChar, DefaultMaskLength)
}
