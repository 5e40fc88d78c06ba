package monitor

import (
	"time"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/realtime"
	"github.com/marcus/giftwell/internal/theme"
)

// Panel represents which panel is active
type Panel int

const (
	PanelPeople Panel = iota
	PanelGifts
	PanelActivity
)

var panelOrder = []Panel{PanelPeople, PanelGifts, PanelActivity}

// String returns the panel title
func (p Panel) String() string {
	switch p {
	case PanelPeople:
		return "PEOPLE"
	case PanelGifts:
		return "GIFTS"
	case PanelActivity:
		return "ACTIVITY"
	}
	return "?"
}

// what names the panel's data in fetch error messages
func (p Panel) what() string {
	switch p {
	case PanelPeople:
		return "people"
	case PanelGifts:
		return "gifts"
	}
	return "activity"
}

// PersonRow is a person with their budget summary, if loaded
type PersonRow struct {
	Person    models.Person
	Budget    *models.PersonBudget
	BudgetErr error
}

// DetailState is the content of the detail overlay
type DetailState struct {
	Panel   Panel
	ID      int64
	Title   string
	Loading bool
	Body    string
	Err     error
	Scroll  int
}

// Minimum dimensions for the dashboard
const (
	MinWidth  = 40
	MinHeight = 15
)

// Default sizes for the watched queries
const (
	giftLimit     = 50
	activityLimit = 30
)

// CacheChangedMsg is sent when watched cache entries change. Bursts of
// changes are coalesced into one message.
type CacheChangedMsg struct{}

// ConnStateMsg carries a realtime connection transition
type ConnStateMsg struct {
	State realtime.ConnState
}

// LoadedMsg is sent after a load pass finishes. Errors are read from the
// cache state, not carried here.
type LoadedMsg struct {
	At time.Time
}

// DetailMsg carries the rendered detail overlay body
type DetailMsg struct {
	Panel Panel
	ID    int64
	Body  string
	Err   error
}

// ThemeMsg carries the stored theme after a load or cycle
type ThemeMsg struct {
	Theme theme.Theme
	Err   error
}

// ClearStatusMsg clears the status message
type ClearStatusMsg struct{}
