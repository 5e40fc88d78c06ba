package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/theme"
)

// palette is the set of colors one theme uses
type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	muted     lipgloss.Color
	text      lipgloss.Color
	border    lipgloss.Color
	selection lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	error     lipgloss.Color
}

var (
	darkPalette = palette{
		primary:   lipgloss.Color("212"),
		secondary: lipgloss.Color("141"),
		muted:     lipgloss.Color("241"),
		text:      lipgloss.Color("255"),
		border:    lipgloss.Color("240"),
		selection: lipgloss.Color("237"),
		success:   lipgloss.Color("42"),
		warning:   lipgloss.Color("214"),
		error:     lipgloss.Color("196"),
	}
	lightPalette = palette{
		primary:   lipgloss.Color("162"),
		secondary: lipgloss.Color("61"),
		muted:     lipgloss.Color("245"),
		text:      lipgloss.Color("235"),
		border:    lipgloss.Color("250"),
		selection: lipgloss.Color("254"),
		success:   lipgloss.Color("28"),
		warning:   lipgloss.Color("130"),
		error:     lipgloss.Color("160"),
	}
)

// Styles holds every style the dashboard renders with
type Styles struct {
	Panel       lipgloss.Style
	ActivePanel lipgloss.Style
	PanelTitle  lipgloss.Style
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Help        lipgloss.Style
	Timestamp   lipgloss.Style
	SelectedRow lipgloss.Style
	Error       lipgloss.Style
	Status      map[models.GiftStatus]lipgloss.Style
	Conn        map[realtime.ConnState]lipgloss.Style
}

// newStyles builds the styles for a resolved theme (light or dark)
func newStyles(t theme.Theme) Styles {
	p := darkPalette
	if t == theme.Light {
		p = lightPalette
	}

	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		ActivePanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Bold(true).
			Background(p.selection).
			Foreground(p.text).
			Padding(0, 1),
		Title:     lipgloss.NewStyle().Bold(true),
		Subtle:    lipgloss.NewStyle().Foreground(p.muted),
		Help:      lipgloss.NewStyle().Foreground(p.muted),
		Timestamp: lipgloss.NewStyle().Foreground(p.muted),
		SelectedRow: lipgloss.NewStyle().
			Background(p.selection).
			Foreground(p.text),
		Error: lipgloss.NewStyle().Foreground(p.error),
		Status: map[models.GiftStatus]lipgloss.Style{
			models.GiftStatusIdea:      lipgloss.NewStyle().Foreground(p.secondary),
			models.GiftStatusPlanned:   lipgloss.NewStyle().Foreground(p.warning),
			models.GiftStatusPurchased: lipgloss.NewStyle().Foreground(p.success),
			models.GiftStatusWrapped:   lipgloss.NewStyle().Foreground(p.primary),
			models.GiftStatusGiven:     lipgloss.NewStyle().Foreground(p.muted),
		},
		Conn: map[realtime.ConnState]lipgloss.Style{
			realtime.Connected:    lipgloss.NewStyle().Foreground(p.success),
			realtime.Connecting:   lipgloss.NewStyle().Foreground(p.warning),
			realtime.Disconnected: lipgloss.NewStyle().Foreground(p.error),
		},
	}
}

// formatStatus renders a gift status with color
func (s Styles) formatStatus(st models.GiftStatus) string {
	style, ok := s.Status[st]
	if !ok {
		return string(st)
	}
	return style.Render(string(st))
}

// connIndicator renders the connection dot and label for the footer
func (s Styles) connIndicator(st realtime.ConnState, polling bool) string {
	label := string(st)
	if polling {
		label += " (polling)"
	}
	style, ok := s.Conn[st]
	if !ok {
		style = s.Subtle
	}
	return style.Render("● " + label)
}
