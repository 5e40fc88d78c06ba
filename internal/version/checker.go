package version

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdateAvailableMsg tells the dashboard a newer release exists.
type UpdateAvailableMsg struct {
	Current string
	Latest  string
	Command string
}

// Cmd runs Check in the background and reports only when an update exists.
func (c *Checker) Cmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		res := c.Check(ctx)
		if res.Err != nil || !res.HasUpdate {
			return nil
		}
		return UpdateAvailableMsg{
			Current: res.Current,
			Latest:  res.Latest,
			Command: res.UpdateCommand(),
		}
	}
}
