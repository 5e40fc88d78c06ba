// Package keymap holds the dashboard key bindings. Defaults can be
// overridden per action from keymap.json in the config directory.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is something a key can make the dashboard do.
type Action string

const (
	Quit       Action = "quit"
	ToggleHelp Action = "toggle-help"
	CycleTheme Action = "cycle-theme"
	Refresh    Action = "refresh"

	NextPanel    Action = "next-panel"
	PrevPanel    Action = "prev-panel"
	CursorDown   Action = "cursor-down"
	CursorUp     Action = "cursor-up"
	CursorTop    Action = "cursor-top"
	CursorBottom Action = "cursor-bottom"
	OpenDetails  Action = "open-details"

	Close      Action = "close"
	ScrollDown Action = "scroll-down"
	ScrollUp   Action = "scroll-up"
)

// Mode is the part of the dashboard that has focus.
type Mode int

const (
	ModePanels Mode = iota
	ModeDetail
	ModeHelp
)

// KeyMap is the full set of dashboard bindings. The same key can mean
// different things per mode: j moves the cursor over panels and scrolls a
// detail view.
type KeyMap struct {
	Quit  key.Binding
	Help  key.Binding
	Theme key.Binding

	NextPanel key.Binding
	PrevPanel key.Binding
	Down      key.Binding
	Up        key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Open      key.Binding
	Refresh   key.Binding

	Close      key.Binding
	ScrollDown key.Binding
	ScrollUp   key.Binding
}

// Default returns the stock bindings.
func Default() *KeyMap {
	return &KeyMap{
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Theme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle theme")),

		NextPanel: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		PrevPanel: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous panel")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "go to top")),
		Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "go to bottom")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open details")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

		Close:      key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "close")),
		ScrollDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
		ScrollUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
	}
}

type slot struct {
	action  Action
	binding *key.Binding
}

// slots lists what each mode listens for, first match wins.
func (k *KeyMap) slots(mode Mode) []slot {
	switch mode {
	case ModeHelp:
		return []slot{
			{Quit, &k.Quit},
			{ToggleHelp, &k.Help},
			{ToggleHelp, &k.Close},
			{ScrollDown, &k.ScrollDown},
			{ScrollUp, &k.ScrollUp},
		}
	case ModeDetail:
		return []slot{
			{Quit, &k.Quit},
			{ToggleHelp, &k.Help},
			{CycleTheme, &k.Theme},
			{Close, &k.Close},
			{ScrollDown, &k.ScrollDown},
			{ScrollUp, &k.ScrollUp},
			{Refresh, &k.Refresh},
		}
	}
	return []slot{
		{Quit, &k.Quit},
		{ToggleHelp, &k.Help},
		{CycleTheme, &k.Theme},
		{NextPanel, &k.NextPanel},
		{PrevPanel, &k.PrevPanel},
		{CursorDown, &k.Down},
		{CursorUp, &k.Up},
		{CursorTop, &k.Top},
		{CursorBottom, &k.Bottom},
		{OpenDetails, &k.Open},
		{Refresh, &k.Refresh},
	}
}

// Match returns the action msg triggers in mode.
func (k *KeyMap) Match(msg tea.KeyMsg, mode Mode) (Action, bool) {
	for _, s := range k.slots(mode) {
		if key.Matches(msg, *s.binding) {
			return s.action, true
		}
	}
	return "", false
}

// ShortHelp is the footer hint line for mode.
func (k *KeyMap) ShortHelp(mode Mode) []key.Binding {
	switch mode {
	case ModeDetail:
		return []key.Binding{k.ScrollDown, k.ScrollUp, k.Close, k.Refresh}
	case ModeHelp:
		return []key.Binding{k.ScrollDown, k.Help}
	}
	return []key.Binding{k.Quit, k.NextPanel, k.Down, k.Open, k.Refresh, k.Theme, k.Help}
}

// FullHelp is the help overlay, one column per mode.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPanel, k.PrevPanel, k.Down, k.Up, k.Top, k.Bottom, k.Open, k.Refresh},
		{k.ScrollDown, k.ScrollUp, k.Close},
		{k.Theme, k.Help, k.Quit},
	}
}
