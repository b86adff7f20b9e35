package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/eventbus"
	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
	"github.com/qrdeck/qrdeck/internal/output"
	"github.com/qrdeck/qrdeck/internal/syncer"
)

// Source supplies the project list. syncer.Engine implements it.
type Source interface {
	Warm() error
	Refresh(ctx context.Context) (syncer.Result, error)
	Filter(query string) []model.Project
}

// Customizer resets a project's colors. customize.Service implements it.
type Customizer interface {
	Reset(ctx context.Context, key model.ProjectKey) error
	Apply(projects []model.Project) ([]model.Project, error)
}

// tickMsg is sent when the timer ticks.
type tickMsg time.Time

// refreshedMsg carries a completed refresh.
type refreshedMsg struct {
	res syncer.Result
	err error
}

// updatedMsg is a customization event delivered through the bus.
type updatedMsg struct {
	key model.ProjectKey
	// selected is set when the event came from the detail subscription.
	// Such events only update the status line.
	selected bool
}

// resetMsg reports the outcome of a color reset.
type resetMsg struct {
	err error
}

// eventBuffer bounds queued bus events; a pending refresh covers the rest.
const eventBuffer = 16

// BrowserConfig holds configuration for the browser.
type BrowserConfig struct {
	Source     Source
	Customizer Customizer
	Bus        *eventbus.Bus
	// ValueFor returns the encoded QR value shown in the detail pane.
	ValueFor        func(model.Project) string
	RefreshInterval time.Duration
}

// BrowserModel is the bubbletea model for the project browser.
type BrowserModel struct {
	// Data
	projects  []model.Project
	stale     bool
	fetchedAt time.Time
	applied   uint64

	// Dependencies
	source     Source
	customizer Customizer
	bus        *eventbus.Bus
	valueFor   func(model.Project) string

	// Lifecycle
	ctx       context.Context
	cancel    context.CancelFunc
	active    bool
	events    chan updatedMsg
	listSub   *eventbus.Subscription
	detailSub *eventbus.Subscription

	// UI state
	width      int
	height     int
	cursor     int
	query      string
	searching  bool
	detail     bool
	loading    bool
	pending    bool
	err        error
	message    string
	messageExp time.Time

	refreshInterval time.Duration
}

// NewBrowserModel creates a browser and subscribes it to customization
// events. Close releases the subscriptions.
func NewBrowserModel(config BrowserConfig) *BrowserModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.Bus == nil {
		config.Bus = eventbus.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &BrowserModel{
		source:          config.Source,
		customizer:      config.Customizer,
		bus:             config.Bus,
		valueFor:        config.ValueFor,
		ctx:             ctx,
		cancel:          cancel,
		active:          true,
		events:          make(chan updatedMsg, eventBuffer),
		refreshInterval: config.RefreshInterval,
	}
	m.listSub = eventbus.Subscribe(m.bus, eventbus.CustomizationUpdated, func(key model.ProjectKey) {
		m.enqueue(updatedMsg{key: key})
	})
	return m
}

// enqueue hands a bus event to the program without blocking the publisher.
func (m *BrowserModel) enqueue(msg updatedMsg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Close deactivates the browser: subscriptions are released and in-flight
// refreshes are cancelled. It is safe to call more than once.
func (m *BrowserModel) Close() {
	m.active = false
	m.listSub.Release()
	m.detailSub.Release()
	m.cancel()
}

// Init initializes the model.
func (m *BrowserModel) Init() tea.Cmd {
	if err := m.source.Warm(); err != nil {
		m.err = err
	} else {
		m.stale = true
		m.refilter()
	}
	m.loading = true
	return tea.Batch(
		m.tickCmd(),
		m.refreshCmd(),
		m.waitForEvent(),
	)
}

// Update handles messages and updates the model.
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// Clear expired messages
		if !m.messageExp.IsZero() && time.Now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, m.tickCmd()

	case refreshedMsg:
		return m, m.handleRefreshed(msg)

	case updatedMsg:
		if !m.active {
			return m, nil
		}
		// The list subscription sees every event, so it alone refreshes.
		if msg.selected {
			m.setMessage("Customization updated", 2*time.Second)
			return m, m.waitForEvent()
		}
		return m, tea.Batch(m.requestRefresh(), m.waitForEvent())

	case resetMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.setMessage("Colors reset", 2*time.Second)
		}
		return m, nil
	}

	return m, nil
}

// handleRefreshed applies a refresh unless the browser went inactive or a
// newer result was already applied.
func (m *BrowserModel) handleRefreshed(msg refreshedMsg) tea.Cmd {
	if !m.active {
		return nil
	}
	m.loading = false

	switch {
	case errors.Is(msg.err, syncer.ErrSuperseded), errors.Is(msg.err, context.Canceled):
		logging.DebugLog("browser dropped refresh", logging.KeyGeneration, msg.res.Generation)
	case msg.err != nil:
		m.err = msg.err
	case msg.res.Generation < m.applied:
		logging.DebugLog("browser dropped stale refresh", logging.KeyGeneration, msg.res.Generation)
	default:
		m.applied = msg.res.Generation
		m.stale = !msg.res.Fresh
		m.fetchedAt = msg.res.FetchedAt
		m.err = nil
		m.refilter()
	}

	if m.pending {
		m.pending = false
		return m.requestRefresh()
	}
	return nil
}

// requestRefresh starts a refresh, or queues one if a refresh is running.
func (m *BrowserModel) requestRefresh() tea.Cmd {
	if m.loading {
		m.pending = true
		return nil
	}
	m.loading = true
	return m.refreshCmd()
}

// handleKeyPress handles keyboard input.
func (m *BrowserModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.Close()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.followSelection()
		}
	case "down", "j":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
			m.followSelection()
		}
	case "/":
		m.searching = true
	case "esc":
		if m.detail {
			m.closeDetail()
		} else if m.query != "" {
			m.query = ""
			m.refilter()
		}
	case "enter":
		if m.detail {
			m.closeDetail()
		} else {
			m.openDetail()
		}
	case "r":
		m.setMessage("Refreshing...", time.Second)
		return m, m.requestRefresh()
	case "x":
		return m, m.resetCmd()
	}
	return m, nil
}

// handleSearchKey edits the search query.
func (m *BrowserModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.Close()
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	default:
		return m, nil
	}
	m.refilter()
	return m, nil
}

// refilter recomputes the visible list from the source.
func (m *BrowserModel) refilter() {
	projects := m.source.Filter(m.query)
	if m.customizer != nil {
		overlaid, err := m.customizer.Apply(projects)
		if err != nil {
			m.err = err
		} else {
			projects = overlaid
		}
	}

	var selected *model.ProjectKey
	if p, ok := m.Selected(); ok {
		k := p.Key()
		selected = &k
	}
	m.projects = projects

	m.cursor = 0
	if selected != nil {
		for i, p := range projects {
			if p.Key().Matches(*selected) {
				m.cursor = i
				break
			}
		}
	}
	if m.detail {
		m.followSelection()
	}
}

// Selected returns the project under the cursor.
func (m *BrowserModel) Selected() (model.Project, bool) {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return model.Project{}, false
	}
	return m.projects[m.cursor], true
}

// openDetail shows the selected project and subscribes to its updates.
func (m *BrowserModel) openDetail() {
	p, ok := m.Selected()
	if !ok {
		return
	}
	m.detail = true
	m.subscribeSelected(p)
}

func (m *BrowserModel) closeDetail() {
	m.detail = false
	m.detailSub.Release()
	m.detailSub = nil
}

// followSelection moves the detail subscription to the current selection.
func (m *BrowserModel) followSelection() {
	if !m.detail {
		return
	}
	if p, ok := m.Selected(); ok {
		m.subscribeSelected(p)
	} else {
		m.closeDetail()
	}
}

func (m *BrowserModel) subscribeSelected(p model.Project) {
	m.detailSub.Release()
	m.detailSub = eventbus.SubscribeKey(m.bus, p.Key(), func(key model.ProjectKey) {
		m.enqueue(updatedMsg{key: key, selected: true})
	})
}

// View renders the browser.
func (m *BrowserModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader()}

	if m.err != nil {
		sections = append(sections, StyleError.Render("Error: "+qerrors.Notice(m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}
	if m.searching || m.query != "" {
		cursor := ""
		if m.searching {
			cursor = "█"
		}
		sections = append(sections, "Search: "+m.query+cursor)
	}

	rows := m.height - 12
	if m.detail {
		rows -= 9
	}
	sections = append(sections, NewListComponent(m.projects, m.cursor, m.width, rows).View())

	if m.detail {
		if p, ok := m.Selected(); ok {
			value := ""
			if m.valueFor != nil {
				value = m.valueFor(p)
			}
			sections = append(sections, NewDetailComponent(p, value, m.width).View())
		}
	}

	sections = append(sections, HelpBar(m.searching))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line with the freshness marker.
func (m *BrowserModel) renderHeader() string {
	title := StyleTitle.Render("qrdeck")
	count := StyleSubtitle.Render(fmt.Sprintf("%d project(s)", len(m.projects)))

	var status string
	switch {
	case m.loading && m.applied == 0:
		status = StyleSubtitle.Render("syncing...")
	case m.stale:
		status = StyleStale.Render("OFFLINE · cached " + output.FormatAge(m.fetchedAt, time.Now()))
	default:
		status = StyleSuccess.Render("live")
	}

	return strings.Join([]string{title, count, status}, "  ") + "\n"
}

// setMessage sets a temporary message.
func (m *BrowserModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = time.Now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *BrowserModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd fetches the list in the background.
func (m *BrowserModel) refreshCmd() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := m.source.Refresh(ctx)
		return refreshedMsg{res: res, err: err}
	}
}

// waitForEvent blocks until the next bus event or until the browser closes.
func (m *BrowserModel) waitForEvent() tea.Cmd {
	ctx := m.ctx
	events := m.events
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// resetCmd resets the selected project's colors.
func (m *BrowserModel) resetCmd() tea.Cmd {
	p, ok := m.Selected()
	if !ok || m.customizer == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return resetMsg{err: m.customizer.Reset(ctx, p.Key())}
	}
}

// Run starts the browser and blocks until it exits.
func Run(config BrowserConfig) error {
	m := NewBrowserModel(config)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
