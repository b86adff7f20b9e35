// Package output provides output formatting for qrdeck.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Format represents the output format type.
type Format string

const (
	FormatCLI   Format = "cli"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCLI, FormatJSON, FormatPlain:
		return Format(s), nil
	case "":
		return FormatCLI, nil
	}
	return "", fmt.Errorf("unknown output format %q (use cli, json or plain)", s)
}

// ColorMode represents the color output mode.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode converts a flag value to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case ColorAuto, ColorAlways, ColorNever:
		return ColorMode(s), nil
	case "":
		return ColorAuto, nil
	}
	return "", fmt.Errorf("unknown color mode %q (use auto, always or never)", s)
}

// DefaultWidth is used when the writer is not a terminal.
const DefaultWidth = 80

// Formatter handles output formatting.
type Formatter struct {
	Writer    io.Writer
	Format    Format
	ColorMode ColorMode
	NoNewline bool
	// Width overrides terminal width detection when positive.
	Width int
}

// NewFormatter creates a new formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		Writer:    os.Stdout,
		Format:    FormatCLI,
		ColorMode: ColorAuto,
	}
}

// IsColorEnabled returns true if color output is enabled.
func (f *Formatter) IsColorEnabled() bool {
	if f.Format == FormatPlain {
		return false
	}
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		// Auto-detect based on terminal
		if w, ok := f.Writer.(*os.File); ok {
			return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
		}
		return false
	}
}

// TerminalWidth returns the usable width of the output.
func (f *Formatter) TerminalWidth() int {
	if f.Width > 0 {
		return f.Width
	}
	if w, ok := f.Writer.(*os.File); ok && term.IsTerminal(int(w.Fd())) {
		if width, _, err := term.GetSize(int(w.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// IsJSON reports whether output is JSON.
func (f *Formatter) IsJSON() bool {
	return f.Format == FormatJSON
}

// Print outputs formatted text.
func (f *Formatter) Print(a ...interface{}) {
	fmt.Fprint(f.Writer, a...)
}

// Println outputs formatted text with newline.
func (f *Formatter) Println(a ...interface{}) {
	fmt.Fprintln(f.Writer, a...)
}

// Printf outputs formatted text.
func (f *Formatter) Printf(format string, a ...interface{}) {
	fmt.Fprintf(f.Writer, format, a...)
}

// JSON outputs data as JSON.
func (f *Formatter) JSON(v interface{}) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// PrintJSON is an alias for JSON for consistency.
func (f *Formatter) PrintJSON(v interface{}) error {
	return f.JSON(v)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		if seconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	if d < 48*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}

// FormatAge describes how long ago t was relative to now.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return "just now"
	}
	return FormatDuration(d.Truncate(time.Minute)) + " ago"
}

// FormatTime formats a time in local timezone.
func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatTimeShort formats a time without seconds.
func FormatTimeShort(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatDate formats a date only.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
