package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/model"
)

// Service routes.
const (
	RouteListProjects  = "/api/get-projects"
	RouteSaveProject   = "/api/save-project"
	RouteUpdateProject = "/api/update-project"
	RouteUpdateColor   = "/api/update-color"
	RouteDeleteProject = "/api/delete-project"
	RouteScanAnalytics = "/api/get-scan-analytics"
	RouteTrack         = "/track"
)

var errMissingProjects = errors.New(`response has no "projects" field`)

type listResponse struct {
	Projects *[]model.Project `json:"projects"`
}

// ListProjects fetches the full project list.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	const op = "get-projects"
	data, err := c.do(ctx, op, http.MethodGet, RouteListProjects, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, qerrors.Malformed(op, err)
	}
	if resp.Projects == nil {
		return nil, qerrors.Malformed(op, errMissingProjects)
	}
	return *resp.Projects, nil
}

// SaveProject creates a project and returns the id the service assigned.
// The id is empty when the service does not report one.
func (c *Client) SaveProject(ctx context.Context, p model.Project) (string, error) {
	const op = "save-project"
	data, err := c.do(ctx, op, http.MethodPost, RouteSaveProject, p)
	if err != nil {
		return "", err
	}
	a, err := decodeAck(op, data)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

type updateRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// UpdateProject changes a project's name and text.
func (c *Client) UpdateProject(ctx context.Context, id, name, text string) error {
	const op = "update-project"
	data, err := c.do(ctx, op, http.MethodPut, projectPath(RouteUpdateProject, id), updateRequest{Name: name, Text: text})
	if err != nil {
		return err
	}
	_, err = decodeAck(op, data)
	return err
}

// UpdateColor stores a project's customization.
func (c *Client) UpdateColor(ctx context.Context, id string, custom model.Customization) error {
	const op = "update-color"
	data, err := c.do(ctx, op, http.MethodPut, projectPath(RouteUpdateColor, id), custom)
	if err != nil {
		return err
	}
	_, err = decodeAck(op, data)
	return err
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	const op = "delete-project"
	data, err := c.do(ctx, op, http.MethodDelete, projectPath(RouteDeleteProject, id), nil)
	if err != nil {
		return err
	}
	_, err = decodeAck(op, data)
	return err
}

// ScanAnalytics fetches a project's scan count and event log.
func (c *Client) ScanAnalytics(ctx context.Context, id string) (model.ScanAnalytics, error) {
	const op = "get-scan-analytics"
	data, err := c.do(ctx, op, http.MethodGet, projectPath(RouteScanAnalytics, id), nil)
	if err != nil {
		return model.ScanAnalytics{}, err
	}

	var resp model.ScanAnalytics
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.ScanAnalytics{}, qerrors.Malformed(op, err)
	}
	if resp.ScanEvents == nil {
		resp.ScanEvents = []model.ScanEvent{}
	}
	return resp, nil
}

// TrackURL returns the tracked redirect URL for a project id.
func (c *Client) TrackURL(id string) string {
	return TrackURL(c.baseURL, id)
}

// TrackURL builds the tracked redirect URL under baseURL.
func TrackURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + projectPath(RouteTrack, id)
}
