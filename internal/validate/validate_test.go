package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrdeck/qrdeck/internal/errors"
)

// =============================================================================
// ProjectName / ProjectText Tests
// =============================================================================

func TestProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Home", false},
		{"with_spaces", "Menu board", false},
		{"unicode", "Café menu", false},
		{"max_length", strings.Repeat("a", MaxProjectNameLength), false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too_long", strings.Repeat("a", MaxProjectNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProjectName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsUserError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectText(t *testing.T) {
	assert.NoError(t, ProjectText("https://example.com"))
	assert.NoError(t, ProjectText("plain words"))
	assert.Error(t, ProjectText(""))
	assert.Error(t, ProjectText(strings.Repeat("x", MaxProjectTextLength+1)))
}

// =============================================================================
// HexColor Tests
// =============================================================================

func TestHexColor(t *testing.T) {
	tests := []struct {
		name    string
		color   string
		wantErr bool
	}{
		{"empty", "", false},
		{"lowercase", "#ff5733", false},
		{"uppercase", "#FF5733", false},
		{"no_hash", "FF5733", true},
		{"short", "#FFF", true},
		{"long", "#FF57331", true},
		{"bad_char", "#GG5733", true},
		{"name", "red", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HexColor("qr-color", tt.color)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidColor)
				ue, ok := errors.AsUserError(err)
				require.True(t, ok)
				assert.Equal(t, "qr-color", ue.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// URL Tests
// =============================================================================

func TestURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://legendbackend.onrender.com", false},
		{"http_localhost", "http://localhost:8080", false},
		{"http_lan", "http://192.168.1.20:8080", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no_host", "https://", true},
		{"relative", "/api", true},
		{"too_long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := URL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// NonEmpty / InRange Tests
// =============================================================================

func TestNonEmpty(t *testing.T) {
	assert.NoError(t, NonEmpty("name", "x"))
	err := NonEmpty("name", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name cannot be empty")
}

func TestInRange(t *testing.T) {
	assert.NoError(t, InRange("size", 256, 64, 2048))
	err := InRange("size", 10, 64, 2048)
	require.Error(t, err)
	assert.Equal(t, "Must be between 64 and 2048", errors.GetSuggestion(err))
}

// =============================================================================
// Struct Tests
// =============================================================================

type sample struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"qrColor" validate:"omitempty,hexcolor"`
	Mode  string `koanf:"mode" validate:"oneof=server local"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "a", Color: "#000000", Mode: "local"}))

	err := Struct(sample{Mode: "server"})
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))
	assert.Contains(t, err.Error(), "name is required")

	err = Struct(sample{Name: "a", Color: "blue", Mode: "server"})
	assert.ErrorIs(t, err, errors.ErrInvalidColor)
	assert.Contains(t, err.Error(), "qrColor must be a hex color")

	err = Struct(sample{Name: "a", Mode: "cloud"})
	assert.Contains(t, err.Error(), "mode must be one of: server local")
}

// =============================================================================
// Sanitize Tests
// =============================================================================

func TestSanitizeProjectName(t *testing.T) {
	assert.Equal(t, "Home", SanitizeProjectName("  Home\x00 "))
	assert.Equal(t, "a b", SanitizeProjectName("a b"))
}

func TestStripControlChars(t *testing.T) {
	assert.Equal(t, "line\nnext\ttab", StripControlChars("line\nnext\ttab\x07"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "https:/...", TruncateString("https://example.com", 10))
	assert.Equal(t, "caf", TruncateString("café", 3))
	assert.Equal(t, "café", TruncateString("café", 4))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "Home_https___example.com", SafeFilename("Home|https://example.com"))
	assert.Equal(t, "menu_board", SafeFilename(" menu board. "))
	assert.Len(t, SafeFilename(strings.Repeat("a", 300)), 200)
}
