package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrdeck/qrdeck/internal/analytics"
	"github.com/qrdeck/qrdeck/internal/model"
)

func newTestCLI(buf *bytes.Buffer) *CLIFormatter {
	return NewCLIFormatter(&Formatter{Writer: buf, Format: FormatCLI, ColorMode: ColorNever, Width: 40})
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.NotNil(t, f.Writer)
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"cli", "json", "plain"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCLI, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("never")
	require.NoError(t, err)
	assert.Equal(t, ColorNever, m)

	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestIsColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, (&Formatter{Writer: &buf, ColorMode: ColorAlways}).IsColorEnabled())
	assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorNever}).IsColorEnabled())
	// Buffers are never terminals.
	assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorAuto}).IsColorEnabled())
	// Plain output never carries color.
	assert.False(t, (&Formatter{Writer: &buf, Format: FormatPlain, ColorMode: ColorAlways}).IsColorEnabled())
}

func TestTerminalWidth(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, DefaultWidth, (&Formatter{Writer: &buf}).TerminalWidth())
	assert.Equal(t, 120, (&Formatter{Writer: &buf, Width: 120}).TerminalWidth())
}

func TestFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	require.NoError(t, f.PrintJSON(map[string]int{"count": 42}))
	assert.Contains(t, buf.String(), `"count": 42`)
}

// =============================================================================
// Time Formatting Tests
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1h 30m"},
		{2 * time.Hour, "2h"},
		{72 * time.Hour, "3d"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.duration))
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", FormatAge(time.Time{}, now))
	assert.Equal(t, "just now", FormatAge(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", FormatAge(now.Add(-5*time.Minute-20*time.Second), now))
	assert.Equal(t, "just now", FormatAge(now.Add(time.Hour), now))
}

func TestFormatDate(t *testing.T) {
	tm := time.Date(2024, 1, 15, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-01-15", FormatDate(tm))
	assert.Contains(t, FormatTime(tm), "2024-01-15 12:00:00")
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

func TestCLIMessages(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	c.Title("Projects")
	c.Success("saved")
	c.Warning("careful")
	c.Error("failed")
	c.Muted("quiet")

	out := buf.String()
	assert.Contains(t, out, "Projects\n")
	assert.Contains(t, out, "✓ saved")
	assert.Contains(t, out, "⚠ careful")
	assert.Contains(t, out, "✗ failed")
	assert.Contains(t, out, "quiet")
	assert.NotContains(t, out, "\x1b[")
}

func TestSwatchWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)
	assert.Equal(t, "#ff0000", c.Swatch("#ff0000"))
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)
	now := time.Now()

	projects := []model.Project{
		{ID: "a1", Name: "Home", Text: "https://example.com", ScanCount: 7},
		{ID: "b2", Name: "Wifi", Text: strings.Repeat("x", 80), QRColor: "#ff0000"},
	}
	c.PrintProjects(projects, false, now, now)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "#000000/#ffffff")
	assert.Contains(t, out, "#ff0000/#ffffff")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 project(s)")
	assert.NotContains(t, out, "Offline")
}

func TestPrintProjectsStale(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	c.PrintProjects([]model.Project{{ID: "a"}}, true, now.Add(-2*time.Hour), now)
	assert.Contains(t, buf.String(), "Offline: showing cached projects from 2h ago")

	buf.Reset()
	c.PrintProjects(nil, true, time.Time{}, now)
	assert.Contains(t, buf.String(), "nothing cached yet")
	assert.Contains(t, buf.String(), "No projects found")
}

func TestPrintProject(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	p := model.Project{ID: "a1", Name: "Home", Text: "hello", ScanCount: 3}
	c.PrintProject(p, "https://qr.example/track/a1", "https://www.google.com/search?q=hello")

	out := buf.String()
	assert.Contains(t, out, "ID:       a1")
	assert.Contains(t, out, "QR color: #000000")
	assert.Contains(t, out, "Scans:    3")
	assert.Contains(t, out, "QR value: https://qr.example/track/a1")
	assert.Contains(t, out, "Opens:    https://www.google.com/search?q=hello")
}

// =============================================================================
// Chart & Analytics Views
// =============================================================================

func TestBar(t *testing.T) {
	assert.Equal(t, "", Bar(0, 10, 20))
	assert.Equal(t, "", Bar(5, 0, 20))
	assert.Equal(t, strings.Repeat("█", 20), Bar(10, 10, 20))
	assert.Equal(t, strings.Repeat("█", 10), Bar(5, 10, 20))
	assert.Equal(t, "█", Bar(1, 1000, 20))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "██████████", ProgressBar(150, 10))
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(-5, 10))
}

func TestPrintChartFitsWidth(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	c.PrintChart(analytics.Series{
		Counts:  []int{2, 1},
		Labels:  []string{"2024-01-01", "2024-01-02"},
		Skipped: 1,
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// 40 columns minus label, count and spacing leaves 25 cells.
	assert.Equal(t, "2024-01-01  2 "+strings.Repeat("█", 25), lines[0])
	assert.Equal(t, "2024-01-02  1 "+strings.Repeat("█", 12), lines[1])
	assert.Contains(t, lines[2], "1 scan(s) with unreadable timestamps")
}

func TestPrintChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)
	c.PrintChart(analytics.Aggregate(nil))
	assert.Contains(t, buf.String(), "No scans recorded yet.")
}

func TestPrintBreakdown(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	c.PrintBreakdown(analytics.Summary{
		Total:     4,
		Countries: []analytics.Count{{Label: "DE", Count: 3}, {Label: analytics.Unknown, Count: 1}},
		Devices:   []analytics.Count{{Label: "iPhone", Count: 4}},
	})

	out := buf.String()
	assert.Contains(t, out, "Countries")
	assert.Contains(t, out, "75.0% (3)")
	assert.Contains(t, out, "100.0% (4)")

	buf.Reset()
	c.PrintBreakdown(analytics.Summary{})
	assert.Empty(t, buf.String())
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	events := []model.ScanEvent{
		{Timestamp: "2024-01-02T10:00:00Z", UserAgent: "Mozilla/5.0 (iPhone)", Location: &model.Location{City: "Berlin", Country: "DE"}},
		{Timestamp: "2024-01-01T10:00:00Z"},
		{Timestamp: "not-a-date"},
	}
	c.PrintHistory(events, 2)

	out := buf.String()
	assert.Contains(t, out, "Berlin, DE")
	assert.Contains(t, out, "iPhone")
	assert.Contains(t, out, analytics.Unknown)
	assert.Contains(t, out, "1 older scan(s) not shown")
	assert.NotContains(t, out, "not-a-date")
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCLI(&buf)

	c.PrintTable([]string{"A", "BB"}, []TableRow{{Columns: []string{"long value", "x"}}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "A           BB", lines[0])
	assert.Equal(t, "long value  x", lines[2])

	buf.Reset()
	c.PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSON Output Tests
// =============================================================================

func TestNewProjectOutputFillsDefaults(t *testing.T) {
	out := NewProjectOutput(model.Project{ID: "a", Name: "n", Text: "t"})
	assert.Equal(t, model.DefaultQRColor, out.QRColor)
	assert.Equal(t, model.DefaultBGColor, out.BGColor)
}

func TestJSONPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf, Format: FormatJSON})

	fetched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.PrintProjects([]model.Project{{ID: "a", Name: "n", Text: "t"}}, false, fetched, 4))

	var resp ProjectsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.False(t, resp.Fresh)
	assert.Equal(t, "2024-01-01T00:00:00Z", resp.FetchedAt)
	assert.Equal(t, uint64(4), resp.Generation)
	assert.Equal(t, "a", resp.Projects[0].ID)
}

func TestJSONPrintProjectsEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})
	require.NoError(t, j.PrintProjects(nil, true, time.Time{}, 1))
	assert.Contains(t, buf.String(), `"projects": []`)
	assert.NotContains(t, buf.String(), "fetched_at")
}

func TestJSONPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})
	require.NoError(t, j.PrintError(ErrorResponse{Error: "project not found", Category: "user"}))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "user", resp.Category)
}

func TestJSONPrintMutation(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})
	p := model.Project{ID: "x", Name: "n", Text: "t"}
	require.NoError(t, j.PrintMutation("created", &p, true))
	assert.Contains(t, buf.String(), `"status": "created"`)
	assert.Contains(t, buf.String(), `"offline": true`)
	assert.Contains(t, buf.String(), `"id": "x"`)
}
