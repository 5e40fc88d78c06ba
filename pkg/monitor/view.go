package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/giftwell/internal/budget"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

// View implements tea.Model
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	// Handle small terminal sizes gracefully
	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.HelpOpen {
		return m.renderHelp()
	}

	footerHeight := 1
	availableHeight := m.Height - footerHeight
	panelHeight := availableHeight / 3

	panels := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPeoplePanel(panelHeight),
		m.renderGiftsPanel(panelHeight),
		m.renderActivityPanel(availableHeight-2*panelHeight),
	)
	base := lipgloss.JoinVertical(lipgloss.Left, panels, m.renderFooter())

	if m.Detail != nil {
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, m.renderDetail(),
			lipgloss.WithWhitespaceChars(" "))
	}
	return base
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder
	s.WriteString("giftwell (resize for full view)\n\n")
	s.WriteString(fmt.Sprintf("People: %d | Gifts: %d | Activity: %d\n", len(m.People), len(m.Gifts), len(m.Activity)))
	s.WriteString(m.styles.connIndicator(m.Conn, m.Polling))
	s.WriteString("\n\n")
	s.WriteString(m.help.ShortHelpView([]key.Binding{m.Keymap.Quit, m.Keymap.Refresh, m.Keymap.Help}))
	return s.String()
}

// panelBody renders the rows of a panel, or its load error or empty text.
func (m Model) panelBody(p Panel, rows []string, height int, empty string) (string, string) {
	title := p.String()
	if err, ok := m.Errs[p]; ok && err != nil {
		return title, m.styles.Error.Render(output.FetchError(p.what(), err))
	}
	if len(rows) == 0 {
		if !m.Loaded {
			return title, m.styles.Subtle.Render(m.spinner.View() + " Loading...")
		}
		return title, m.styles.Subtle.Render(empty)
	}

	maxLines := height - 3 // title + border
	if maxLines < 1 {
		maxLines = 1
	}
	cursor := m.Cursor[p]
	offset := scrollOffset(cursor, len(rows), maxLines)
	if len(rows) > maxLines {
		end := offset + maxLines
		if end > len(rows) {
			end = len(rows)
		}
		title = fmt.Sprintf("%s (%d-%d of %d)", title, offset+1, end, len(rows))
	}

	var content strings.Builder
	for i := offset; i < len(rows) && i < offset+maxLines; i++ {
		line := rows[i]
		if m.ActivePanel == p && cursor == i {
			line = m.styles.SelectedRow.Render("> " + ansi.Strip(line))
		} else {
			line = "  " + line
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	return title, strings.TrimSuffix(content.String(), "\n")
}

// scrollOffset keeps the cursor row inside a window of height rows
func scrollOffset(cursor, total, height int) int {
	if total <= height {
		return 0
	}
	offset := cursor - height + 1
	if offset < 0 {
		offset = 0
	}
	if offset > total-height {
		offset = total - height
	}
	return offset
}

func (m Model) renderPeoplePanel(height int) string {
	rows := make([]string, len(m.People))
	for i, row := range m.People {
		rows[i] = m.formatPersonRow(row)
	}
	title, body := m.panelBody(PanelPeople, rows, height, "No people yet")
	return m.wrapPanel(title, body, height, PanelPeople)
}

func (m Model) renderGiftsPanel(height int) string {
	rows := make([]string, len(m.Gifts))
	for i := range m.Gifts {
		rows[i] = m.formatGiftRow(&m.Gifts[i])
	}
	title, body := m.panelBody(PanelGifts, rows, height, "No gifts yet")
	return m.wrapPanel(title, body, height, PanelGifts)
}

func (m Model) renderActivityPanel(height int) string {
	rows := make([]string, len(m.Activity))
	for i := range m.Activity {
		rows[i] = m.formatActivityRow(&m.Activity[i])
	}
	title, body := m.panelBody(PanelActivity, rows, height, "No recent activity")
	return m.wrapPanel(title, body, height, PanelActivity)
}

// formatPersonRow renders a name followed by one compact bar per visible role
func (m Model) formatPersonRow(row PersonRow) string {
	name := m.styles.Title.Render(fmt.Sprintf("%-16s", output.Truncate(row.Person.Name, 16)))
	switch {
	case row.BudgetErr != nil:
		return name + " " + m.styles.Error.Render(output.FetchError("budget", row.BudgetErr))
	case row.Budget == nil:
		return name
	}

	section := budget.Section(*row.Budget)
	if section.Hidden() {
		return name
	}
	barWidth := (m.Width - 30) / 2
	if barWidth < 10 {
		barWidth = 10
	}
	var parts []string
	if section.Recipient.State != budget.Hidden {
		parts = append(parts, "recv "+budget.Render(section.Recipient, barWidth))
	}
	if section.Purchaser.State != budget.Hidden {
		parts = append(parts, "buy "+budget.Render(section.Purchaser, barWidth))
	}
	return name + " " + strings.Join(parts, "  ")
}

func (m Model) formatGiftRow(g *models.Gift) string {
	parts := []string{
		m.styles.Subtle.Render(fmt.Sprintf("#%d", g.ID)),
		m.styles.formatStatus(g.Status),
		g.Title,
	}
	if g.Price != nil {
		parts = append(parts, m.styles.Subtle.Render(output.Money(*g.Price)))
	}
	return strings.Join(parts, " ")
}

func (m Model) formatActivityRow(a *models.Activity) string {
	actor := a.ActorName
	if actor == "" {
		actor = fmt.Sprintf("#%d", a.ActorID)
	}
	ts := m.styles.Timestamp.Render(fmt.Sprintf("%-8s", output.FormatTimeAgo(a.CreatedAt)))
	return fmt.Sprintf("%s %s %s", ts, m.styles.Title.Render(actor), a.Summary)
}

func formatActivityDetail(a models.Activity) string {
	var sb strings.Builder
	sb.WriteString(output.FormatActivity(&a))
	sb.WriteString("\n\n")
	if a.EntityType != "" {
		sb.WriteString(fmt.Sprintf("%s #%d (%s)\n", a.EntityType, a.EntityID, a.Action))
	}
	return sb.String()
}

// renderFooter renders key hints on the left and status on the right
func (m Model) renderFooter() string {
	keys := m.help.ShortHelpView(m.Keymap.ShortHelp(m.mode()))

	var right []string
	if m.StatusMessage != "" {
		style := m.styles.Subtle
		if m.StatusIsError {
			style = m.styles.Error
		}
		right = append(right, style.Render(m.StatusMessage))
	}
	if m.UpdateAvail != nil {
		right = append(right, m.styles.Title.Render("update: "+m.UpdateAvail.Latest))
	}
	right = append(right, m.styles.connIndicator(m.Conn, m.Polling))
	if !m.LastRefresh.IsZero() {
		right = append(right, m.styles.Timestamp.Render("Last: "+m.LastRefresh.Format("15:04:05")))
	}
	status := strings.Join(right, "  ")

	padding := m.Width - lipgloss.Width(keys) - lipgloss.Width(status) - 2
	if padding < 0 {
		padding = 0
	}
	return fmt.Sprintf(" %s%s%s", keys, strings.Repeat(" ", padding), status)
}

// renderHelp renders the help overlay
func (m Model) renderHelp() string {
	title := "GIFTWELL DASHBOARD - Key Bindings"
	if m.Version != "" {
		title += "  " + m.Version
	}
	lines := []string{"", m.styles.Title.Render(title), ""}
	lines = append(lines, strings.Split(m.help.FullHelpView(m.Keymap.FullHelp()), "\n")...)
	lines = append(lines, "", "Press ? or esc to close help")
	scroll := m.HelpScroll
	if maxScroll := len(lines) - m.Height; scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return m.styles.Help.Render(strings.Join(lines[scroll:], "\n"))
}

func (m Model) detailWidth() int {
	w := m.Width * 80 / 100
	if w < MinWidth {
		w = MinWidth
	}
	return w
}

// renderDetail renders the detail overlay box
func (m Model) renderDetail() string {
	d := m.Detail
	width := m.detailWidth()
	height := m.Height * 80 / 100
	if height < MinHeight-2 {
		height = MinHeight - 2
	}

	var body string
	switch {
	case d.Err != nil:
		body = m.styles.Error.Render(output.FetchError(strings.ToLower(d.Panel.String()), d.Err))
	case d.Loading && d.Body == "":
		body = m.styles.Subtle.Render(m.spinner.View() + " Loading...")
	default:
		body = d.Body
	}

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	visible := height - 4
	scroll := d.Scroll
	if maxScroll := len(lines) - visible; scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]
	if len(lines) > visible {
		lines = lines[:visible]
	}
	for i, line := range lines {
		lines[i] = output.Truncate(line, width-4)
	}

	title := m.styles.PanelTitle.Render(output.Truncate(d.Title, width-6))
	inner := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
	return m.styles.ActivePanel.Width(width).Render(inner)
}

// wrapPanel wraps content in a panel with title and border
func (m Model) wrapPanel(title, content string, height int, panel Panel) string {
	style := m.styles.Panel
	if m.ActivePanel == panel {
		style = m.styles.ActivePanel
	}

	contentWidth := m.Width - 4 // border and padding
	contentHeight := height - 3 // title and border
	if contentHeight < 1 {
		contentHeight = 1
	}

	lines := strings.Split(content, "\n")
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}
	for i, line := range lines {
		if lipgloss.Width(line) > contentWidth {
			lines[i] = output.Truncate(line, contentWidth)
		}
	}

	inner := lipgloss.JoinVertical(lipgloss.Left, m.styles.PanelTitle.Render(title), strings.Join(lines, "\n"))
	return style.Width(m.Width - 2).Render(inner)
}
