package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/identity"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/remote"
	"github.com/qrdeck/qrdeck/internal/server"
	"github.com/qrdeck/qrdeck/internal/storage"
)

// =============================================================================
// Helpers
// =============================================================================

type testEnv struct {
	t       *testing.T
	backend *httptest.Server
	config  string
}

// newTestEnv starts a reference backend and writes a config file pointing
// the CLI at it with an on-disk store, so state survives between commands.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("QRDECK_DATABASE", "")
	t.Setenv("QRDECK_CONFIG", "")

	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	backend := httptest.NewServer(server.New(storage.NewBackendRepo(db), server.Options{}).Handler())
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	cfg := "backend:\n" +
		"  url: " + backend.URL + "\n" +
		"  timeout: 2s\n" +
		"storage:\n" +
		"  path: " + filepath.Join(dir, "db") + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	return &testEnv{t: t, backend: backend, config: path}
}

// run executes the CLI with args and returns what it printed.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.config, "--color", "never"}, args...))
	err := rootCmd.Execute()
	closeRuntime()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

// resetFlags restores every flag to its default between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func (e *testEnv) create(name, text string, extra ...string) output.ProjectOutput {
	e.t.Helper()
	args := append([]string{"project", "create", name, text, "-f", "json"}, extra...)
	resp := decode[output.MutationResponse](e.t, e.mustRun(args...))
	require.NotNil(e.t, resp.Project)
	require.NotEmpty(e.t, resp.Project.ID)
	return *resp.Project
}

// =============================================================================
// Root
// =============================================================================

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("version")
	assert.Contains(t, out, "qrdeck dev")
}

func TestUnknownFormatRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("projects", "-f", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestConfigShowsEffectiveSettings(t *testing.T) {
	env := newTestEnv(t)

	flat := decode[map[string]any](t, env.mustRun("config", "-f", "json"))
	assert.Equal(t, env.backend.URL, flat["backend.url"])
	assert.Equal(t, "explicit", flat["identity.strategy"])

	out := env.mustRun("config", "path")
	assert.Equal(t, env.config, strings.TrimSpace(out))
}

// =============================================================================
// Projects
// =============================================================================

func TestCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Menu", "https://example.com/menu", "--qr-color", "#1d3557")
	assert.Equal(t, "#1d3557", created.QRColor)

	list := decode[output.ProjectsResponse](t, env.mustRun("projects", "-f", "json"))
	assert.True(t, list.Fresh)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Menu", list.Projects[0].Name)

	out := env.mustRun("ls")
	assert.Contains(t, out, "Menu")
	assert.Contains(t, out, "1 project")
	assert.NotContains(t, out, "Offline")
}

func TestCreateOfflineKeepsLocalID(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Wifi", "WIFI:S:home;;", "--offline")

	parts := strings.SplitN(created.ID, "-", 2)
	require.Len(t, parts, 2)

	shown := decode[output.ProjectOutput](t, env.mustRun("project", "show", created.ID, "-f", "json"))
	assert.Equal(t, created.ID, shown.ID)
	assert.Equal(t, remote.TrackURL(env.backend.URL, created.ID), shown.QRValue)
}

func TestCreateValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("project", "create", "Bad", "https://example.com", "--qr-color", "red")
	require.Error(t, err)
	assert.True(t, qerrors.IsUserError(err))

	_, err = env.run("project", "create", "  ", "https://example.com")
	require.Error(t, err)
}

func TestSearchFiltersList(t *testing.T) {
	env := newTestEnv(t)
	env.create("Home", "https://example.com")
	env.create("Menu", "https://example.com/menu")

	list := decode[output.ProjectsResponse](t, env.mustRun("projects", "--search", "men", "-f", "json"))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Menu", list.Projects[0].Name)

	// Text matches too, not only names.
	list = decode[output.ProjectsResponse](t, env.mustRun("projects", "--search", "example.com/MENU", "-f", "json"))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Menu", list.Projects[0].Name)

	assert.Contains(t, projectsCmd.Flags().Lookup("search").Usage, "name or text")
}

func TestListFallsBackToCacheWhenOffline(t *testing.T) {
	env := newTestEnv(t)
	env.create("Home", "https://example.com")
	env.mustRun("projects")

	env.backend.Close()

	list := decode[output.ProjectsResponse](t, env.mustRun("projects", "-f", "json"))
	assert.False(t, list.Fresh)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Home", list.Projects[0].Name)

	out := env.mustRun("projects")
	assert.Contains(t, out, "Offline")
}

func TestShowUsesActiveProject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("project", "show")
	require.Error(t, err)

	created := env.create("Home", "https://example.com")
	out := env.mustRun("project", "show")
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, created.ID)
}

func TestEditAndDelete(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Home", "https://example.com")

	env.mustRun("project", "edit", created.ID, "--name", "House")
	shown := decode[output.ProjectOutput](t, env.mustRun("project", "show", created.ID, "-f", "json"))
	assert.Equal(t, "House", shown.Name)

	_, err := env.run("project", "edit", created.ID)
	require.Error(t, err)

	env.mustRun("project", "delete", created.ID)
	_, err = env.run("project", "show", created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

// =============================================================================
// Customize
// =============================================================================

func TestCustomizeServerMode(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Home", "https://example.com")

	resp := decode[output.CustomizationResponse](t,
		env.mustRun("customize", created.ID, "--qr-color", "#e63946", "-f", "json"))
	assert.Equal(t, "#e63946", resp.QRColor)
	assert.Equal(t, model.DefaultBGColor, resp.BGColor)
	assert.Equal(t, "server", resp.Mode)

	shown := decode[output.ProjectOutput](t, env.mustRun("project", "show", created.ID, "-f", "json"))
	assert.Equal(t, "#e63946", shown.QRColor)

	resp = decode[output.CustomizationResponse](t, env.mustRun("customize", created.ID, "--reset", "-f", "json"))
	assert.Equal(t, model.DefaultQRColor, resp.QRColor)
}

func TestCustomizeResetExcludesColors(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Home", "https://example.com")

	_, err := env.run("customize", created.ID, "--reset", "--qr-color", "#000000")
	require.Error(t, err)
}

// =============================================================================
// QR and analytics
// =============================================================================

func TestQRExport(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Home", "https://example.com")
	file := filepath.Join(t.TempDir(), "home.png")

	resp := decode[output.QRResponse](t, env.mustRun("qr", created.ID, "--direct", "--out", file, "-f", "json"))
	assert.Equal(t, "https://example.com", resp.Value)
	assert.Equal(t, "direct", resp.Mode)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	dir := t.TempDir()
	resp = decode[output.QRResponse](t, env.mustRun("qr", created.ID, "--out", dir, "-f", "json"))
	assert.Equal(t, filepath.Join(dir, "Home.png"), resp.File)
	assert.FileExists(t, resp.File)

	_, err = env.run("qr", created.ID, "--size", "8")
	require.Error(t, err)
}

func TestAnalyticsAfterScan(t *testing.T) {
	env := newTestEnv(t)
	created := env.create("Home", "https://example.com")

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(remote.TrackURL(env.backend.URL, created.ID))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	analytics := decode[output.AnalyticsResponse](t, env.mustRun("analytics", created.ID, "-f", "json"))
	assert.EqualValues(t, 1, analytics.ScanCount)
	assert.Equal(t, 1, analytics.Series.Total())
	assert.Len(t, analytics.History, 1)

	out := env.mustRun("analytics", created.ID, "--since", "7d")
	assert.Contains(t, out, "Total scans: 1")
	assert.Contains(t, out, "scans since")

	_, err = env.run("analytics", created.ID, "--since", "%%%")
	require.Error(t, err)
}

// =============================================================================
// Completion
// =============================================================================

func TestProjectCompletions(t *testing.T) {
	projects := []model.Project{
		{ID: "a1", Name: "Home", Text: "https://example.com"},
		{ID: "b2", Name: "Menu", Text: "menu"},
		{Name: "Draft", Text: "draft"},
	}

	got := projectCompletions(projects, identity.StrategyExplicit, "a")
	assert.Equal(t, []string{"a1\tHome"}, got)

	got = projectCompletions(projects, identity.StrategyDerived, "Dr")
	assert.Equal(t, []string{"Draft|draft\tDraft"}, got)
}
