package qrcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/model"
)

// =============================================================================
// Value Tests
// =============================================================================

func TestValue(t *testing.T) {
	p := model.Project{ID: "abc", Text: "https://example.com"}

	assert.Equal(t, "https://qr.example.com/track/abc", Value("https://qr.example.com", p, ModeTracked))
	assert.Equal(t, "https://example.com", Value("https://qr.example.com", p, ModeDirect))

	p.ID = ""
	assert.Equal(t, "https://example.com", Value("https://qr.example.com", p, ModeTracked))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Direct")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("fancy")
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("HTTP://EXAMPLE.COM"))
	assert.False(t, IsURL("example.com"))
	assert.False(t, IsURL("ftp://example.com"))
	assert.False(t, IsURL(" https://example.com"))
}

func TestLinkToOpen(t *testing.T) {
	assert.Equal(t, "https://example.com", LinkToOpen("https://example.com"))
	assert.Equal(t, "https://www.google.com/search?q=lunch+specials%26more", LinkToOpen("lunch specials&more"))
}

// =============================================================================
// Render / Capture Tests
// =============================================================================

func TestPNGRendererUsesColors(t *testing.T) {
	r := NewPNGRenderer()
	data, err := r.Render("https://example.com", model.Customization{QRColor: "#ff0000", BGColor: "#00ff00"}, 128)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	// The quiet zone corner is background.
	r0, g0, b0, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r0)
	assert.Equal(t, uint32(0xffff), g0)
	assert.Equal(t, uint32(0), b0)
}

func TestPNGRendererDefaults(t *testing.T) {
	data, err := NewPNGRenderer().Render("hello", model.Customization{}, 0)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestPNGRendererErrors(t *testing.T) {
	_, err := NewPNGRenderer().Render("", model.DefaultCustomization(), 64)
	assert.Error(t, err)

	_, err = NewPNGRenderer().Render("x", model.Customization{QRColor: "red"}, 64)
	assert.ErrorIs(t, err, qerrors.ErrInvalidColor)
}

type failingRenderer struct{}

func (failingRenderer) Render(string, model.Customization, int) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestCapture(t *testing.T) {
	encoded, err := Capture(NewPNGRenderer(), "https://example.com", model.DefaultCustomization(), 64)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = Capture(nil, "x", model.DefaultCustomization(), 64)
	assert.ErrorIs(t, err, qerrors.ErrCaptureFailure)

	_, err = Capture(failingRenderer{}, "x", model.DefaultCustomization(), 64)
	assert.ErrorIs(t, err, qerrors.ErrCaptureFailure)
	assert.Equal(t, "QR could not be captured", qerrors.Notice(err))
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#0A0B0C")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x0a, G: 0x0b, B: 0x0c, A: 0xff}, c)

	for _, bad := range []string{"", "0A0B0C", "#FFF", "#GGGGGG"} {
		_, err := ParseHexColor(bad)
		assert.ErrorIs(t, err, qerrors.ErrInvalidColor, bad)
	}
}
