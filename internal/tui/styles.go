// Package tui provides the interactive project browser for qrdeck.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for the browser.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles for the TUI.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StyleSubtitle is used for subtitles and secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleMuted is used for muted text.
	StyleMuted = StyleSubtitle

	// StyleProject is used for project names.
	StyleProject = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StyleSelected marks the row under the cursor.
	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	// StyleCount is used for scan counts.
	StyleCount = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	// StyleStale marks lists served from the local cache.
	StyleStale = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	// StyleWarning is used for warning messages.
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// StyleError is used for error messages.
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	// StyleSuccess is used for success messages.
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleHelp is used for help text at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	// StyleHelpKey is used for keyboard shortcut keys.
	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	// StyleHelpDesc is used for keyboard shortcut descriptions.
	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Box styles for different sections.
var (
	// StyleListBox frames the project list.
	StyleListBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// StyleDetailBox frames the selected project.
	StyleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorActive).
			Padding(0, 1)
)

// Swatch renders a hex color as a small colored block.
func Swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██") + " " + hex
}

type helpKey struct {
	key  string
	desc string
}

var (
	browseKeys = []helpKey{
		{"/", "search"},
		{"enter", "details"},
		{"x", "reset colors"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	searchKeys = []helpKey{
		{"enter", "apply"},
		{"esc", "clear"},
	}
)

// HelpBar renders the help bar for the given mode.
func HelpBar(searching bool) string {
	keys := browseKeys
	if searching {
		keys = searchKeys
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
