package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/qrdeck/qrdeck/internal/analytics"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/validate"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleProject = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleBar = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleCount = lipgloss.NewStyle().
			Bold(true)
)

// Column limits for project tables.
const (
	maxNameWidth = 24
	maxTextWidth = 40
	chartLabel   = len(analytics.DayLayout)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) styled(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.styled(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.styled(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.styled(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.styled(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.styled(styleMuted, text))
}

// ProjectName formats a project name.
func (c *CLIFormatter) ProjectName(name string) string {
	return c.styled(styleProject, name)
}

// Swatch renders a hex color as a colored block followed by its value.
func (c *CLIFormatter) Swatch(hex string) string {
	if !c.IsColorEnabled() || !model.ValidateColor(hex) || hex == "" {
		return hex
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██") + " " + hex
}

// PrintStaleNotice warns that a list came from the local cache.
func (c *CLIFormatter) PrintStaleNotice(fetchedAt, now time.Time) {
	if fetchedAt.IsZero() {
		c.Warning("Offline: backend unreachable and nothing cached yet.")
		return
	}
	c.Warning(fmt.Sprintf("Offline: showing cached projects from %s.", FormatAge(fetchedAt, now)))
}

// PrintProjects prints the project list. stale marks results served from cache.
func (c *CLIFormatter) PrintProjects(projects []model.Project, stale bool, fetchedAt, now time.Time) {
	if stale {
		c.PrintStaleNotice(fetchedAt, now)
	}
	if len(projects) == 0 {
		c.Muted("No projects found.")
		c.Muted("Use 'qrdeck project create <name> <text>' to add one.")
		return
	}

	rows := make([]TableRow, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, TableRow{Columns: []string{
			p.ID,
			validate.TruncateString(p.Name, maxNameWidth),
			validate.TruncateString(p.Text, maxTextWidth),
			fmt.Sprintf("%d", p.ScanCount),
			p.Customization().QRColor + "/" + p.Customization().BGColor,
		}})
	}
	c.PrintTable([]string{"ID", "NAME", "TEXT", "SCANS", "COLORS"}, rows)
	c.Muted(fmt.Sprintf("%d project(s)", len(projects)))
}

// PrintProject prints a single project with its QR value and link.
func (c *CLIFormatter) PrintProject(p model.Project, value, link string) {
	c.Println(c.ProjectName(p.Name))
	if p.ID != "" {
		c.Printf("  ID:       %s\n", p.ID)
	}
	c.Printf("  Text:     %s\n", p.Text)
	if t := p.ModifiedAt(); !t.IsZero() {
		c.Printf("  Modified: %s\n", FormatTimeShort(t))
	}
	custom := p.Customization()
	c.Printf("  QR color: %s\n", c.Swatch(custom.QRColor))
	c.Printf("  BG color: %s\n", c.Swatch(custom.BGColor))
	c.Printf("  Scans:    %s\n", c.styled(styleCount, fmt.Sprintf("%d", p.ScanCount)))
	if value != "" {
		c.Printf("  QR value: %s\n", value)
	}
	if link != "" {
		c.Printf("  Opens:    %s\n", link)
	}
}

// Bar returns a bar proportional to count/max within width cells. Non-zero
// counts always get at least one cell.
func Bar(count, max, width int) string {
	if count <= 0 || max <= 0 || width <= 0 {
		return ""
	}
	filled := count * width / max
	if filled < 1 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled)
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

// PrintChart prints the daily scan series as horizontal bars fitted to the
// terminal width.
func (c *CLIFormatter) PrintChart(series analytics.Series) {
	if len(series.Labels) == 0 {
		c.Muted("No scans recorded yet.")
		return
	}

	max := 0
	for _, n := range series.Counts {
		if n > max {
			max = n
		}
	}
	countWidth := len(fmt.Sprintf("%d", max))
	barWidth := c.TerminalWidth() - chartLabel - countWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	for i, label := range series.Labels {
		n := series.Counts[i]
		c.Printf("%s  %*d %s\n", label, countWidth, n, c.styled(styleBar, Bar(n, max, barWidth)))
	}
	if series.Skipped > 0 {
		c.Muted(fmt.Sprintf("%d scan(s) with unreadable timestamps not charted", series.Skipped))
	}
}

// PrintBreakdown prints scan counts by country and device.
func (c *CLIFormatter) PrintBreakdown(summary analytics.Summary) {
	if summary.Total == 0 {
		return
	}
	c.printCounts("Countries", summary.Countries, summary.Total)
	c.printCounts("Devices", summary.Devices, summary.Total)
}

func (c *CLIFormatter) printCounts(title string, counts []analytics.Count, total int) {
	c.Println(c.styled(styleBold, title))
	width := 0
	for _, row := range counts {
		if len(row.Label) > width {
			width = len(row.Label)
		}
	}
	for _, row := range counts {
		pct := float64(row.Count) * 100 / float64(total)
		c.Printf("  %-*s %s %5.1f%% (%d)\n", width, row.Label, ProgressBar(pct, 20), pct, row.Count)
	}
}

// PrintHistory prints scans most recent first. limit <= 0 prints all.
func (c *CLIFormatter) PrintHistory(events []model.ScanEvent, limit int) {
	if len(events) == 0 {
		c.Muted("No scan history.")
		return
	}
	shown := events
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	rows := make([]TableRow, 0, len(shown))
	for _, e := range shown {
		when := e.Timestamp
		if t, err := e.Time(); err == nil {
			when = FormatTime(t)
		}
		rows = append(rows, TableRow{Columns: []string{
			when,
			formatLocation(e.Location),
			analytics.DeviceFamily(e.UserAgent),
		}})
	}
	c.PrintTable([]string{"WHEN", "WHERE", "DEVICE"}, rows)
	if len(shown) < len(events) {
		c.Muted(fmt.Sprintf("... %d older scan(s) not shown", len(events)-len(shown)))
	}
}

func formatLocation(loc *model.Location) string {
	if loc == nil {
		return analytics.Unknown
	}
	parts := make([]string, 0, 2)
	if loc.City != "" {
		parts = append(parts, loc.City)
	}
	if loc.Country != "" {
		parts = append(parts, loc.Country)
	}
	if len(parts) == 0 {
		return analytics.Unknown
	}
	return strings.Join(parts, ", ")
}

// Table helpers for CLI output.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	// Print headers
	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]))
	}
	c.Println(strings.TrimRight(c.styled(styleBold, headerLine.String()), " "))

	// Print separator
	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	// Print rows
	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

func pad(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap < 0 {
		gap = 0
	}
	return s + strings.Repeat(" ", gap+2)
}
