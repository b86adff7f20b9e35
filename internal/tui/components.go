package tui

import (
	"fmt"
	"strings"

	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/validate"
)

// ListComponent displays the project list with a cursor.
type ListComponent struct {
	Projects []model.Project
	Cursor   int
	Width    int
	// Rows limits how many projects are visible; the window follows the cursor.
	Rows int
}

// NewListComponent creates a new list component.
func NewListComponent(projects []model.Project, cursor, width, rows int) *ListComponent {
	if rows <= 0 {
		rows = 10
	}
	return &ListComponent{Projects: projects, Cursor: cursor, Width: width, Rows: rows}
}

// window returns the visible slice bounds.
func (lc *ListComponent) window() (int, int) {
	start := 0
	if lc.Cursor >= lc.Rows {
		start = lc.Cursor - lc.Rows + 1
	}
	end := start + lc.Rows
	if end > len(lc.Projects) {
		end = len(lc.Projects)
	}
	return start, end
}

// View renders the list component.
func (lc *ListComponent) View() string {
	var content strings.Builder

	if len(lc.Projects) == 0 {
		content.WriteString(StyleMuted.Render("No projects"))
	} else {
		textWidth := lc.Width - 40
		if textWidth < 12 {
			textWidth = 12
		}
		start, end := lc.window()
		for i := start; i < end; i++ {
			if i > start {
				content.WriteString("\n")
			}
			content.WriteString(lc.renderRow(lc.Projects[i], i == lc.Cursor, textWidth))
		}
		if end < len(lc.Projects) || start > 0 {
			content.WriteString("\n")
			content.WriteString(StyleMuted.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(lc.Projects))))
		}
	}

	return StyleListBox.Width(boxWidth(lc.Width)).Render(content.String())
}

func (lc *ListComponent) renderRow(p model.Project, selected bool, textWidth int) string {
	marker := "  "
	name := validate.TruncateString(p.Name, 20)
	if selected {
		marker = "> "
		name = StyleSelected.Render(name)
	} else {
		name = StyleProject.Render(name)
	}
	return fmt.Sprintf("%s%s  %s  %s",
		marker,
		name,
		StyleSubtitle.Render(validate.TruncateString(p.Text, textWidth)),
		StyleCount.Render(fmt.Sprintf("%d", p.ScanCount)),
	)
}

// DetailComponent displays the selected project.
type DetailComponent struct {
	Project model.Project
	Value   string
	Width   int
}

// NewDetailComponent creates a new detail component.
func NewDetailComponent(p model.Project, value string, width int) *DetailComponent {
	return &DetailComponent{Project: p, Value: value, Width: width}
}

// View renders the detail component.
func (dc *DetailComponent) View() string {
	var content strings.Builder
	p := dc.Project
	custom := p.Customization()

	content.WriteString(StyleTitle.Render(p.Name))
	content.WriteString("\n")
	if p.ID != "" {
		content.WriteString(StyleSubtitle.Render("id " + p.ID))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(p.Text)
	content.WriteString("\n\n")
	content.WriteString("QR " + Swatch(custom.QRColor) + "   BG " + Swatch(custom.BGColor))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("Scans %s", StyleCount.Render(fmt.Sprintf("%d", p.ScanCount))))
	if dc.Value != "" {
		content.WriteString("\n")
		content.WriteString(StyleSubtitle.Render("Encodes " + dc.Value))
	}

	return StyleDetailBox.Width(boxWidth(dc.Width)).Render(content.String())
}

func boxWidth(width int) int {
	if width < 24 {
		return 20
	}
	return width - 4
}
