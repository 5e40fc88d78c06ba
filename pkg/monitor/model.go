// Package monitor is the live dashboard: people with budget bars, recent
// gifts and the activity feed, kept current by realtime events.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/theme"
	"github.com/marcus/giftwell/internal/version"
	"github.com/marcus/giftwell/pkg/monitor/keymap"
)

const statusTimeout = 3 * time.Second

// Options configures a dashboard model.
type Options struct {
	Entity  *entity.Client
	Themes  *theme.Store
	Version string
	// Updates, when set, looks for a newer release in the background.
	Updates *version.Checker
	// Keymap overrides the default bindings when set.
	Keymap *keymap.KeyMap
	// SystemTheme is what the System preference resolves to. Resolve it
	// before the program takes over the terminal; empty means resolve now.
	SystemTheme theme.Theme
}

// Model is the main Bubble Tea model for the dashboard
type Model struct {
	Width  int
	Height int

	// Panel data
	People   []PersonRow
	Gifts    []models.Gift
	Activity []models.Activity
	Errs     map[Panel]error
	Loaded   bool

	// UI state
	ActivePanel  Panel
	Cursor       map[Panel]int
	ScrollOffset map[Panel]int
	HelpOpen     bool
	HelpScroll   int
	Detail       *DetailState
	LastRefresh  time.Time
	spinner      spinner.Model

	// Connection
	Conn    realtime.ConnState
	Polling bool

	// Theme
	Theme       theme.Theme
	systemTheme theme.Theme
	styles      Styles

	// Status message (temporary feedback)
	StatusMessage string
	StatusIsError bool

	// Version checking
	Version     string
	UpdateAvail *version.UpdateAvailableMsg

	Keymap *keymap.KeyMap
	help   help.Model

	themes  *theme.Store
	updates *version.Checker
	feed    *feed
}

// NewModel creates a dashboard model and starts its live queries. Call
// Close when the program exits.
func NewModel(opts Options) Model {
	km := opts.Keymap
	if km == nil {
		km = keymap.Default()
	}
	sys := opts.SystemTheme
	if sys == "" || sys == theme.System {
		sys = theme.System.Resolve()
	}

	return Model{
		Errs:         make(map[Panel]error),
		ActivePanel:  PanelPeople,
		Cursor:       make(map[Panel]int),
		ScrollOffset: make(map[Panel]int),
		Conn:         opts.Entity.Realtime().State(),
		Theme:        theme.System,
		systemTheme:  sys,
		styles:       newStyles(sys),
		Version:      opts.Version,
		Keymap:       km,
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		themes:       opts.Themes,
		updates:      opts.Updates,
		feed:         newFeed(opts.Entity),
	}
}

// Close releases the live queries.
func (m Model) Close() {
	if m.feed != nil {
		m.feed.Close()
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.snapshotNow,
		m.feed.load(),
		m.feed.listen(),
		m.loadTheme(),
		m.spinner.Tick,
	}

	if m.updates != nil {
		cmds = append(cmds, m.updates.Cmd(context.Background()))
	}
	return tea.Batch(cmds...)
}

// snapshotNow shows whatever was hydrated from disk before the first load.
func (m Model) snapshotNow() tea.Msg { return CacheChangedMsg{} }

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case CacheChangedMsg:
		cmd := m.applySnapshot()
		return m, tea.Batch(cmd, m.feed.listen())

	case ConnStateMsg:
		m.Conn = msg.State
		m.Polling = m.feed.polling()
		return m, m.feed.listen()

	case LoadedMsg:
		m.Loaded = true
		m.LastRefresh = msg.At
		m.Polling = m.feed.polling()
		return m, m.applySnapshot()

	case DetailMsg:
		if m.Detail != nil && m.Detail.Panel == msg.Panel && m.Detail.ID == msg.ID {
			m.Detail.Loading = false
			m.Detail.Body = msg.Body
			m.Detail.Err = msg.Err
		}
		return m, nil

	case ThemeMsg:
		if msg.Err != nil {
			return m.setStatus("Theme: "+msg.Err.Error(), true)
		}
		m.Theme = msg.Theme
		m.styles = newStyles(m.resolvedTheme())
		// Comment bodies are rendered for a theme.
		return m.reloadDetail()

	case version.UpdateAvailableMsg:
		m.UpdateAvail = &msg
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ClearStatusMsg:
		m.StatusMessage = ""
		m.StatusIsError = false
		return m, nil
	}
	return m, nil
}

// applySnapshot copies the cached data into the model and clamps cursors.
func (m *Model) applySnapshot() tea.Cmd {
	s := m.feed.snapshot()
	m.People = s.People
	m.Gifts = s.Gifts
	m.Activity = s.Activity
	m.Errs = s.Errs
	m.Polling = m.feed.polling()
	for _, p := range panelOrder {
		m.clampCursor(p)
	}

	people := make([]models.Person, len(m.People))
	for i, row := range m.People {
		people[i] = row.Person
	}
	if m.feed.missingBudgets(people) {
		return m.feed.loadBudgetsCmd()
	}
	return nil
}

// busy reports whether anything on screen is waiting on a fetch
func (m Model) busy() bool {
	return !m.Loaded || (m.Detail != nil && m.Detail.Loading)
}

func (m Model) resolvedTheme() theme.Theme {
	if m.Theme == theme.System {
		return m.systemTheme
	}
	return m.Theme
}

// mode is the part of the dashboard keys currently go to
func (m Model) mode() keymap.Mode {
	switch {
	case m.HelpOpen:
		return keymap.ModeHelp
	case m.Detail != nil:
		return keymap.ModeDetail
	}
	return keymap.ModePanels
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, ok := m.Keymap.Match(msg, m.mode())
	if !ok {
		return m, nil
	}
	return m.executeCommand(action)
}

func (m Model) executeCommand(action keymap.Action) (tea.Model, tea.Cmd) {
	switch action {
	case keymap.Quit:
		return m, tea.Quit

	case keymap.ToggleHelp:
		m.HelpOpen = !m.HelpOpen
		m.HelpScroll = 0
		return m, nil

	case keymap.CycleTheme:
		return m, m.cycleTheme()

	case keymap.NextPanel:
		m.ActivePanel = (m.ActivePanel + 1) % Panel(len(panelOrder))
		return m, nil

	case keymap.PrevPanel:
		m.ActivePanel = (m.ActivePanel + Panel(len(panelOrder)) - 1) % Panel(len(panelOrder))
		return m, nil

	case keymap.CursorDown:
		m.Cursor[m.ActivePanel]++
		m.clampCursor(m.ActivePanel)
		return m, nil

	case keymap.CursorUp:
		m.Cursor[m.ActivePanel]--
		m.clampCursor(m.ActivePanel)
		return m, nil

	case keymap.CursorTop:
		m.Cursor[m.ActivePanel] = 0
		m.clampCursor(m.ActivePanel)
		return m, nil

	case keymap.CursorBottom:
		m.Cursor[m.ActivePanel] = m.rowCount(m.ActivePanel) - 1
		m.clampCursor(m.ActivePanel)
		return m, nil

	case keymap.ScrollDown:
		if m.HelpOpen {
			m.HelpScroll++
		} else if m.Detail != nil {
			m.Detail.Scroll++
		}
		return m, nil

	case keymap.ScrollUp:
		if m.HelpOpen && m.HelpScroll > 0 {
			m.HelpScroll--
		} else if m.Detail != nil && m.Detail.Scroll > 0 {
			m.Detail.Scroll--
		}
		return m, nil

	case keymap.OpenDetails:
		return m.openDetail()

	case keymap.Close:
		m.Detail = nil
		return m, nil

	case keymap.Refresh:
		if m.Detail != nil {
			return m.reloadDetail()
		}
		n := m.feed.refresh()
		next, cmd := m.setStatus(refreshStatus(n), false)
		return next, tea.Batch(cmd, m.feed.load())
	}
	return m, nil
}

func refreshStatus(n int) string {
	if n == 1 {
		return "Refreshing 1 query"
	}
	return fmt.Sprintf("Refreshing %d queries", n)
}

// rowCount returns the number of selectable rows in a panel
func (m Model) rowCount(p Panel) int {
	switch p {
	case PanelPeople:
		return len(m.People)
	case PanelGifts:
		return len(m.Gifts)
	case PanelActivity:
		return len(m.Activity)
	}
	return 0
}

func (m *Model) clampCursor(p Panel) {
	n := m.rowCount(p)
	c := m.Cursor[p]
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	m.Cursor[p] = c
}

// openDetail opens the overlay for the selected row
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	c := m.Cursor[m.ActivePanel]
	switch m.ActivePanel {
	case PanelPeople:
		if c >= len(m.People) {
			return m, nil
		}
		p := m.People[c].Person
		m.Detail = &DetailState{Panel: PanelPeople, ID: p.ID, Title: p.Name, Loading: true}
	case PanelGifts:
		if c >= len(m.Gifts) {
			return m, nil
		}
		g := m.Gifts[c]
		m.Detail = &DetailState{Panel: PanelGifts, ID: g.ID, Title: g.Title, Loading: true}
	case PanelActivity:
		if c >= len(m.Activity) {
			return m, nil
		}
		a := m.Activity[c]
		m.Detail = &DetailState{Panel: PanelActivity, ID: a.ID, Title: "Activity", Body: formatActivityDetail(a)}
		return m, nil
	}
	return m.reloadDetail()
}

func (m Model) reloadDetail() (tea.Model, tea.Cmd) {
	d := m.Detail
	if d == nil || d.Panel == PanelActivity {
		return m, nil
	}
	d.Loading = true
	width := m.detailWidth() - 4
	if d.Panel == PanelPeople {
		return m, tea.Batch(m.feed.fetchPersonDetail(d.ID, width, m.resolvedTheme()), m.spinner.Tick)
	}
	return m, tea.Batch(m.feed.fetchGiftDetail(d.ID, m.personNames(), width, m.resolvedTheme()), m.spinner.Tick)
}

func (m Model) personNames() map[int64]string {
	names := make(map[int64]string, len(m.People))
	for _, row := range m.People {
		names[row.Person.ID] = row.Person.Name
	}
	return names
}

func (m Model) loadTheme() tea.Cmd {
	store := m.themes
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		t, err := store.Get()
		return ThemeMsg{Theme: t, Err: err}
	}
}

func (m Model) cycleTheme() tea.Cmd {
	store := m.themes
	if store == nil {
		next := m.Theme.Next()
		return func() tea.Msg { return ThemeMsg{Theme: next} }
	}
	return func() tea.Msg {
		t, err := store.Cycle()
		return ThemeMsg{Theme: t, Err: err}
	}
}

// setStatus shows a temporary message in the footer
func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.StatusMessage = text
	m.StatusIsError = isErr
	return m, tea.Tick(statusTimeout, func(time.Time) tea.Msg { return ClearStatusMsg{} })
}
