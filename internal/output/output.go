// Package output provides styled terminal output helpers (success, error,
// warning, entity formatting) using lipgloss.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/budget"
	"github.com/marcus/giftwell/internal/dateparse"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/theme"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyles = map[models.GiftStatus]lipgloss.Style{
		models.GiftStatusIdea:      lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.GiftStatusPlanned:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.GiftStatusPurchased: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.GiftStatusWrapped:   lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.GiftStatusGiven:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// OutputMode determines output format
type OutputMode int

const (
	ModeShort OutputMode = iota
	ModeLong
	ModeJSON
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeNetwork      = "network"
	ErrCodeInternal     = "internal"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// ErrorCode maps an error to one of the JSON error codes. Requests the
// server rejected as the caller's fault, bad credentials included, are
// invalid_input; failures to reach the server are network.
func ErrorCode(err error) string {
	var (
		apiErr *apiclient.APIError
		urlErr *url.Error
		netErr net.Error
	)
	switch {
	case errors.Is(err, apiclient.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, apiclient.ErrUnauthorized), errors.Is(err, apiclient.ErrForbidden):
		return ErrCodeInvalidInput
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return ErrCodeInvalidInput
		}
		return ErrCodeInternal
	case errors.As(err, &urlErr), errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeNetwork
	}
	return ErrCodeInternal
}

// FetchError is the message shown in place of data that failed to load.
func FetchError(what string, err error) string {
	return fmt.Sprintf("failed to load %s: %s", what, apiclient.ErrorMessage(err))
}

// FormatStatus formats a gift status with color
func FormatStatus(s models.GiftStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// Money formats an amount as "$1,234.50".
func Money(v float64) string {
	return budget.Money(v)
}

// FormatPrice returns the styled price, or "" when unknown.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return priceStyle.Render(Money(*p))
}

// Truncate shortens s to width display cells, keeping ANSI styling intact.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// FormatGiftShort formats a gift on one line
func FormatGiftShort(g *models.Gift) string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("#%d", g.ID)),
		g.Title,
	}
	if price := FormatPrice(g.Price); price != "" {
		parts = append(parts, price)
	}
	if len(g.Tags) > 0 {
		parts = append(parts, subtleStyle.Render(strings.Join(g.Tags, ",")))
	}
	parts = append(parts, FormatStatus(g.Status))
	return strings.Join(parts, "  ")
}

// FormatGiftLong formats a gift with its details
func FormatGiftLong(g *models.Gift, people map[int64]string) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("#%d: %s", g.ID, g.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s", FormatStatus(g.Status)))
	if price := FormatPrice(g.Price); price != "" {
		sb.WriteString(" | Price: " + price)
	}
	sb.WriteString("\n")

	if len(g.PersonIDs) > 0 {
		names := make([]string, 0, len(g.PersonIDs))
		for _, id := range g.PersonIDs {
			names = append(names, personName(people, id))
		}
		sb.WriteString(fmt.Sprintf("For: %s\n", strings.Join(names, ", ")))
	}
	if g.PurchaserID != nil {
		sb.WriteString(fmt.Sprintf("Buyer: %s\n", personName(people, *g.PurchaserID)))
	}
	if len(g.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(g.Tags, ", ")))
	}
	if g.URL != "" {
		sb.WriteString(fmt.Sprintf("Link: %s\n", g.URL))
	}
	if g.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		sb.WriteString(g.Description)
		sb.WriteString("\n")
	}
	if !g.UpdatedAt.IsZero() {
		sb.WriteString(subtleStyle.Render("Updated " + FormatTimeAgo(g.UpdatedAt)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func personName(people map[int64]string, id int64) string {
	if name, ok := people[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// FormatPerson formats a person on one line
func FormatPerson(p *models.Person) string {
	parts := []string{titleStyle.Render(fmt.Sprintf("#%d", p.ID)), p.Name}
	if p.Nickname != "" {
		parts = append(parts, subtleStyle.Render(fmt.Sprintf("(%s)", p.Nickname)))
	}
	if p.Birthday != "" {
		parts = append(parts, subtleStyle.Render("born "+p.Birthday))
	}
	return strings.Join(parts, "  ")
}

// FormatList formats a gift list on one line with its progress
func FormatList(l *models.List) string {
	return strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("#%d", l.ID)),
		l.Name,
		subtleStyle.Render(string(l.Kind)),
		fmt.Sprintf("%d/%d done", l.DoneCount, l.ItemCount),
	}, "  ")
}

// FormatListItem formats an item of a list
func FormatListItem(it *models.ListItem) string {
	check := "[ ]"
	if it.Status.IsDone() {
		check = successStyle.Render("[x]")
	}
	title := fmt.Sprintf("gift #%d", it.GiftID)
	if it.Gift != nil {
		title = it.Gift.Title
	}
	parts := []string{check, titleStyle.Render(fmt.Sprintf("#%d", it.ID)), title, FormatStatus(it.Status)}
	if it.Notes != "" {
		parts = append(parts, subtleStyle.Render(it.Notes))
	}
	return strings.Join(parts, "  ")
}

// FormatOccasion formats an occasion on one line
func FormatOccasion(o *models.Occasion) string {
	parts := []string{titleStyle.Render(fmt.Sprintf("#%d", o.ID)), o.Name, subtleStyle.Render(string(o.Kind))}
	if o.Date != "" {
		date := o.Date
		if next, ok := dateparse.NextOccurrence(o.Date, o.Recurring, time.Now()); ok {
			date = fmt.Sprintf("%s (%s)", next.Format("2006-01-02"), daysAway(dateparse.DaysUntil(next, time.Now())))
		} else if t, err := time.Parse("2006-01-02", o.Date); err == nil {
			date = fmt.Sprintf("%s (%s)", o.Date, humanize.Time(t))
		}
		parts = append(parts, date)
	}
	if o.Recurring {
		parts = append(parts, subtleStyle.Render("yearly"))
	}
	return strings.Join(parts, "  ")
}

func daysAway(n int) string {
	switch n {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", n)
}

// FormatGroup formats a group on one line
func FormatGroup(g *models.Group) string {
	return strings.Join([]string{
		titleStyle.Render(fmt.Sprintf("#%d", g.ID)),
		g.Name,
		subtleStyle.Render(humanize.Comma(int64(len(g.MemberIDs))) + " members"),
	}, "  ")
}

// FormatFieldOption formats a field option on one line
func FormatFieldOption(o *models.FieldOption) string {
	label := o.Label
	if label == "" {
		label = o.Value
	}
	return fmt.Sprintf("%s  %s  %s", titleStyle.Render(fmt.Sprintf("#%d", o.ID)), subtleStyle.Render(o.Field), label)
}

// FormatComment formats a comment header and its markdown body
func FormatComment(c *models.Comment, width int, t theme.Theme) string {
	author := c.AuthorName
	if author == "" {
		author = fmt.Sprintf("#%d", c.AuthorID)
	}
	header := fmt.Sprintf("%s  %s", titleStyle.Render(author), subtleStyle.Render(FormatTimeAgo(c.CreatedAt)))

	body, err := RenderMarkdown(c.Body, width, t)
	if err != nil || body == "" {
		body = c.Body
	}
	return header + "\n" + IndentString(body, 2)
}

// FormatActivity formats a feed entry on one line
func FormatActivity(a *models.Activity) string {
	actor := a.ActorName
	if actor == "" {
		actor = fmt.Sprintf("#%d", a.ActorID)
	}
	return fmt.Sprintf("%s  %s %s", subtleStyle.Render(FormatTimeAgo(a.CreatedAt)), titleStyle.Render(actor), a.Summary)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// BulletList formats items as a bulleted list with the given indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent) + "- "
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = prefix + item
	}
	return out
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nITEMS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentLines indents each line by the specified number of spaces
func IndentLines(lines []string, spaces int) []string {
	indent := strings.Repeat(" ", spaces)
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = indent + line
	}
	return result
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	indented := IndentLines(lines, spaces)
	return strings.Join(indented, "\n")
}
