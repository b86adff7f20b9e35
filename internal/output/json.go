package output

import (
	"time"

	"github.com/qrdeck/qrdeck/internal/analytics"
	"github.com/qrdeck/qrdeck/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// ProjectOutput represents a project in JSON output.
type ProjectOutput struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Time      string `json:"time,omitempty"`
	QRColor   string `json:"qr_color"`
	BGColor   string `json:"bg_color"`
	ScanCount int64  `json:"scan_count"`
	QRValue   string `json:"qr_value,omitempty"`
	Link      string `json:"link,omitempty"`
}

// NewProjectOutput creates a ProjectOutput from a Project. Colors carry
// their defaults when unset.
func NewProjectOutput(p model.Project) *ProjectOutput {
	custom := p.Customization()
	return &ProjectOutput{
		ID:        p.ID,
		Name:      p.Name,
		Text:      p.Text,
		Time:      p.Time,
		QRColor:   custom.QRColor,
		BGColor:   custom.BGColor,
		ScanCount: p.ScanCount,
	}
}

// ProjectsResponse represents the projects list output in JSON.
type ProjectsResponse struct {
	Projects   []*ProjectOutput `json:"projects"`
	Count      int              `json:"count"`
	Fresh      bool             `json:"fresh"`
	FetchedAt  string           `json:"fetched_at,omitempty"`
	Generation uint64           `json:"generation"`
}

// NewProjectsResponse creates a ProjectsResponse.
func NewProjectsResponse(projects []model.Project, fresh bool, fetchedAt time.Time, generation uint64) *ProjectsResponse {
	outputs := make([]*ProjectOutput, len(projects))
	for i, p := range projects {
		outputs[i] = NewProjectOutput(p)
	}
	resp := &ProjectsResponse{
		Projects:   outputs,
		Count:      len(projects),
		Fresh:      fresh,
		Generation: generation,
	}
	if !fetchedAt.IsZero() {
		resp.FetchedAt = fetchedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// MutationResponse reports the outcome of a create, edit or delete.
type MutationResponse struct {
	Status  string         `json:"status"`
	Project *ProjectOutput `json:"project,omitempty"`
	Offline bool           `json:"offline,omitempty"`
}

// CustomizationResponse represents a project's customization in JSON.
type CustomizationResponse struct {
	Project string `json:"project"`
	Mode    string `json:"mode"`
	State   string `json:"state"`
	QRColor string `json:"qr_color"`
	BGColor string `json:"bg_color"`
}

// AnalyticsResponse represents the analytics view in JSON.
type AnalyticsResponse struct {
	Project   *ProjectOutput    `json:"project"`
	ScanCount int64             `json:"scan_count"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	Series    analytics.Series  `json:"series"`
	Summary   analytics.Summary `json:"summary"`
	History   []model.ScanEvent `json:"history"`
}

// QRResponse represents the qr command output in JSON.
type QRResponse struct {
	Project string `json:"project"`
	Mode    string `json:"mode"`
	Value   string `json:"value"`
	Link    string `json:"link"`
	File    string `json:"file,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintProjects outputs the project list in JSON format.
func (j *JSONFormatter) PrintProjects(projects []model.Project, fresh bool, fetchedAt time.Time, generation uint64) error {
	return j.JSON(NewProjectsResponse(projects, fresh, fetchedAt, generation))
}

// PrintMutation outputs a mutation result in JSON format.
func (j *JSONFormatter) PrintMutation(status string, p *model.Project, offline bool) error {
	resp := MutationResponse{Status: status, Offline: offline}
	if p != nil {
		resp.Project = NewProjectOutput(*p)
	}
	return j.JSON(resp)
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(resp ErrorResponse) error {
	if resp.Status == "" {
		resp.Status = "error"
	}
	return j.JSON(resp)
}
