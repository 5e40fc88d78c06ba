// Package budget decides how a person's gift budget is displayed and draws
// it: nothing, a totals line, an empty bar or a stacked progress bar.
package budget

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/marcus/giftwell/internal/models"
)

// State is how one role's budget is rendered.
type State int

const (
	// Hidden: no budget and no gifts.
	Hidden State = iota
	// TotalsOnly: gifts but no budget. Purchased, planned and total amounts
	// without a bar.
	TotalsOnly
	// EmptyBar: a budget but no gifts yet.
	EmptyBar
	// FullBar: purchased and planned segments against the budget.
	FullBar
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case TotalsOnly:
		return "totals-only"
	case EmptyBar:
		return "empty-bar"
	case FullBar:
		return "full-bar"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RoleTotals are the figures for one role, recipient or purchaser.
type RoleTotals struct {
	Budget         *float64
	GiftCount      int
	PurchasedTotal float64
	PlannedTotal   float64
}

// FromRole converts the API shape.
func FromRole(r models.RoleBudget) RoleTotals {
	return RoleTotals{
		Budget:         r.Budget,
		GiftCount:      r.GiftCount,
		PurchasedTotal: r.PurchasedTotal,
		PlannedTotal:   r.PlannedTotal,
	}
}

// Bar is the evaluated display for one role.
type Bar struct {
	State  State
	Totals RoleTotals
	// OverBudget is set only for FullBar, when the planned total exceeds
	// the budget.
	OverBudget bool
}

// Total is purchased plus planned.
func (b Bar) Total() float64 { return b.Totals.PurchasedTotal + b.Totals.PlannedTotal }

// Evaluate applies the decision table. It holds no state: call it again
// whenever the totals change.
func Evaluate(t RoleTotals) Bar {
	hasBudget := t.Budget != nil
	hasGifts := t.GiftCount > 0

	bar := Bar{Totals: t}
	switch {
	case !hasBudget && !hasGifts:
		bar.State = Hidden
	case !hasBudget:
		bar.State = TotalsOnly
	case !hasGifts:
		bar.State = EmptyBar
	default:
		bar.State = FullBar
		bar.OverBudget = t.PlannedTotal > *t.Budget
	}
	return bar
}

// PersonSection is both roles of a person's budget.
type PersonSection struct {
	Recipient Bar
	Purchaser Bar
}

// Hidden reports whether the whole section is omitted.
func (s PersonSection) Hidden() bool {
	return s.Recipient.State == Hidden && s.Purchaser.State == Hidden
}

// Section evaluates both roles of a budget summary.
func Section(b models.PersonBudget) PersonSection {
	return PersonSection{
		Recipient: Evaluate(FromRole(b.Recipient)),
		Purchaser: Evaluate(FromRole(b.Purchaser)),
	}
}

var (
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	purchasedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	plannedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	overStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	barFilled = "█"
	barEmpty  = "░"
)

// Money formats an amount with thousands separators and two decimals.
func Money(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// Render draws one role's bar in at most width cells per line. Hidden
// renders as the empty string.
func Render(b Bar, width int) string {
	if width < 10 {
		width = 10
	}
	t := b.Totals

	switch b.State {
	case Hidden:
		return ""
	case TotalsOnly:
		return fmt.Sprintf("%s %s  %s %s  %s %s",
			labelStyle.Render("Purchased"), Money(t.PurchasedTotal),
			labelStyle.Render("Planned"), Money(t.PlannedTotal),
			labelStyle.Render("Total"), Money(b.Total()))
	case EmptyBar:
		bar := emptyStyle.Render(strings.Repeat(barEmpty, width))
		return bar + "\n" + labelStyle.Render(fmt.Sprintf("%s of %s", Money(0), Money(*t.Budget)))
	}

	purchased, planned := segments(t.PurchasedTotal, t.PlannedTotal, *t.Budget, width)
	bar := purchasedStyle.Render(strings.Repeat(barFilled, purchased)) +
		plannedStyle.Render(strings.Repeat(barFilled, planned)) +
		emptyStyle.Render(strings.Repeat(barEmpty, width-purchased-planned))

	line := labelStyle.Render(fmt.Sprintf("%s of %s", Money(b.Total()), Money(*t.Budget)))
	if b.OverBudget {
		line += "  " + overStyle.Render("over budget")
	}
	return bar + "\n" + line
}

// RenderSection draws both roles with headings, skipping hidden ones.
func RenderSection(s PersonSection, width int) string {
	if s.Hidden() {
		return ""
	}
	var parts []string
	if s.Recipient.State != Hidden {
		parts = append(parts, labelStyle.Render("Receiving"), Render(s.Recipient, width))
	}
	if s.Purchaser.State != Hidden {
		parts = append(parts, labelStyle.Render("Buying"), Render(s.Purchaser, width))
	}
	return strings.Join(parts, "\n")
}

// segments splits width cells between the purchased and planned amounts.
// The scale is the budget, or the total when that is larger, so the bar
// never overflows. Negative amounts, such as refund adjustments, take no
// cells.
func segments(purchased, planned, budget float64, width int) (int, int) {
	purchased, planned = math.Max(purchased, 0), math.Max(planned, 0)
	scale := math.Max(budget, purchased+planned)
	if scale <= 0 || width <= 0 {
		return 0, 0
	}
	both := clamp(int(math.Round((purchased+planned)/scale*float64(width))), 0, width)
	p := clamp(int(math.Round(purchased/scale*float64(width))), 0, both)
	return p, both - p
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
