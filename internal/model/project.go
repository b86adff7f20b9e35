package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Default colors applied when a project carries no customization.
const (
	DefaultQRColor = "#000000"
	DefaultBGColor = "#ffffff"
)

// Project is a user-created QR entity.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,max=128"`
	Text      string `json:"text" validate:"required,max=2048"`
	Time      string `json:"time,omitempty"`
	QRColor   string `json:"qrColor,omitempty" validate:"omitempty,hexcolor"`
	BGColor   string `json:"bgColor,omitempty" validate:"omitempty,hexcolor"`
	QRImage   string `json:"qrImage,omitempty"`
	ScanCount int64  `json:"scanCount"`
}

// NewProject creates a project stamped with the current time and default colors.
func NewProject(name, text string) Project {
	return Project{
		Name:    name,
		Text:    text,
		Time:    time.Now().UTC().Format(time.RFC3339),
		QRColor: DefaultQRColor,
		BGColor: DefaultBGColor,
	}
}

// Key returns the identity key of the project.
func (p Project) Key() ProjectKey {
	return ProjectKey{ID: p.ID, Name: p.Name, Text: p.Text}
}

// Customization returns the project's color pair with defaults filled in.
func (p Project) Customization() Customization {
	return Customization{QRColor: p.QRColor, BGColor: p.BGColor}.WithDefaults()
}

// Touch updates the last-modified timestamp.
func (p *Project) Touch(now time.Time) {
	p.Time = now.UTC().Format(time.RFC3339)
}

// ModifiedAt parses the last-modified timestamp. Zero time if unset or invalid.
func (p Project) ModifiedAt() time.Time {
	t, err := time.Parse(time.RFC3339, p.Time)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ProjectKey identifies a project either by explicit ID or by its name and text.
type ProjectKey struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`
}

// compositeSep separates name and text in a composite key.
const compositeSep = "|"

// Composite returns the name|text form used by the local customization map.
func (k ProjectKey) Composite() string {
	return k.Name + compositeSep + k.Text
}

// Matches reports whether two keys refer to the same project. IDs are
// compared when both keys carry one, otherwise name and text must be equal.
func (k ProjectKey) Matches(other ProjectKey) bool {
	if k.ID != "" && other.ID != "" {
		return k.ID == other.ID
	}
	return k.Name == other.Name && k.Text == other.Text
}

// String implements fmt.Stringer.
func (k ProjectKey) String() string {
	if k.ID != "" {
		return k.ID
	}
	return k.Composite()
}

// ParseCompositeKey splits a name|text key. The text may itself contain the separator.
func ParseCompositeKey(s string) (ProjectKey, error) {
	name, text, ok := strings.Cut(s, compositeSep)
	if !ok || name == "" || text == "" {
		return ProjectKey{}, fmt.Errorf("invalid composite key %q: expected name|text", s)
	}
	return ProjectKey{Name: name, Text: text}, nil
}

// hexColorRegex validates hex color format.
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateColor checks if a color string is a valid hex color.
func ValidateColor(color string) bool {
	if color == "" {
		return true
	}
	return hexColorRegex.MatchString(color)
}
