package qrcode

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/model"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Renderer turns a value into an image.
type Renderer interface {
	Render(value string, c model.Customization, size int) ([]byte, error)
}

// PNGRenderer renders PNG images with go-qrcode.
type PNGRenderer struct {
	Level goqrcode.RecoveryLevel
}

// NewPNGRenderer creates a renderer with medium error correction.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Level: goqrcode.Medium}
}

// Render implements Renderer.
func (r *PNGRenderer) Render(value string, c model.Customization, size int) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("empty value")
	}
	if size <= 0 {
		size = DefaultSize
	}
	c = c.WithDefaults()

	fg, err := ParseHexColor(c.QRColor)
	if err != nil {
		return nil, err
	}
	bg, err := ParseHexColor(c.BGColor)
	if err != nil {
		return nil, err
	}

	q, err := goqrcode.New(value, r.Level)
	if err != nil {
		return nil, err
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg
	return q.PNG(size)
}

// Capture renders value and returns the image as base64, the form stored
// in a project's qrImage. Any failure is reported as ErrCaptureFailure.
func Capture(r Renderer, value string, c model.Customization, size int) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no renderer: %w", qerrors.ErrCaptureFailure)
	}
	data, err := r.Render(value, c, size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", qerrors.ErrCaptureFailure, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image: %w", qerrors.ErrCaptureFailure)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseHexColor parses #RRGGBB.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, qerrors.ErrInvalidColor)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, qerrors.ErrInvalidColor)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
