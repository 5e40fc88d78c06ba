package budget

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/giftwell/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestEvaluate_DecisionTable(t *testing.T) {
	tests := []struct {
		name   string
		totals RoleTotals
		want   State
		over   bool
	}{
		{"no budget no gifts", RoleTotals{}, Hidden, false},
		{"no budget with gifts", RoleTotals{GiftCount: 2, PurchasedTotal: 20, PlannedTotal: 30}, TotalsOnly, false},
		{"budget no gifts", RoleTotals{Budget: ptr(100)}, EmptyBar, false},
		{"budget with gifts", RoleTotals{Budget: ptr(100), GiftCount: 1, PlannedTotal: 40}, FullBar, false},
		{"planned over budget", RoleTotals{Budget: ptr(100), GiftCount: 3, PlannedTotal: 120}, FullBar, true},
		{"planned equals budget", RoleTotals{Budget: ptr(100), GiftCount: 3, PlannedTotal: 100}, FullBar, false},
		{"zero budget is a budget", RoleTotals{Budget: ptr(0), GiftCount: 1, PlannedTotal: 5}, FullBar, true},
		{"no budget ignores overspend", RoleTotals{GiftCount: 1, PlannedTotal: 1e6}, TotalsOnly, false},
		{"empty bar never over", RoleTotals{Budget: ptr(10), PlannedTotal: 50}, EmptyBar, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.totals)
			if got.State != tt.want {
				t.Errorf("State = %v, want %v", got.State, tt.want)
			}
			if got.OverBudget != tt.over {
				t.Errorf("OverBudget = %v, want %v", got.OverBudget, tt.over)
			}
		})
	}
}

func TestEvaluate_Recomputed(t *testing.T) {
	totals := RoleTotals{Budget: ptr(100), GiftCount: 1, PlannedTotal: 150}
	if !Evaluate(totals).OverBudget {
		t.Fatal("expected over budget")
	}
	totals.Budget = ptr(200)
	if Evaluate(totals).OverBudget {
		t.Error("raising the budget must clear the flag")
	}
}

func TestSection(t *testing.T) {
	s := Section(models.PersonBudget{PersonID: 1})
	if !s.Hidden() {
		t.Error("section with no budgets and no gifts should be hidden")
	}
	if RenderSection(s, 40) != "" {
		t.Error("hidden section renders nothing")
	}

	s = Section(models.PersonBudget{
		PersonID:  1,
		Purchaser: models.RoleBudget{Budget: ptr(50)},
	})
	if s.Hidden() {
		t.Fatal("one visible role keeps the section")
	}
	if s.Recipient.State != Hidden || s.Purchaser.State != EmptyBar {
		t.Errorf("states = %v/%v", s.Recipient.State, s.Purchaser.State)
	}
	out := ansi.Strip(RenderSection(s, 20))
	if strings.Contains(out, "Receiving") || !strings.Contains(out, "Buying") {
		t.Errorf("unexpected section:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		bar      Bar
		contains []string
		absent   []string
	}{
		{
			name:   "hidden",
			bar:    Evaluate(RoleTotals{}),
			absent: []string{"Total", "█", "░"},
		},
		{
			name:     "totals only",
			bar:      Evaluate(RoleTotals{GiftCount: 2, PurchasedTotal: 1200, PlannedTotal: 34.5}),
			contains: []string{"Purchased $1,200.00", "Planned $34.50", "Total $1,234.50"},
			absent:   []string{"█", "░"},
		},
		{
			name:     "empty bar",
			bar:      Evaluate(RoleTotals{Budget: ptr(80)}),
			contains: []string{"░", "$0.00 of $80.00"},
			absent:   []string{"█"},
		},
		{
			name:     "full bar",
			bar:      Evaluate(RoleTotals{Budget: ptr(100), GiftCount: 2, PurchasedTotal: 25, PlannedTotal: 25}),
			contains: []string{"█", "░", "$50.00 of $100.00"},
			absent:   []string{"over budget"},
		},
		{
			name:     "refund adjustment",
			bar:      Evaluate(RoleTotals{Budget: ptr(100), GiftCount: 2, PurchasedTotal: -30, PlannedTotal: 20}),
			contains: []string{"█", "░", "of $100.00"},
			absent:   []string{"over budget"},
		},
		{
			name:     "over budget",
			bar:      Evaluate(RoleTotals{Budget: ptr(100), GiftCount: 2, PurchasedTotal: 10, PlannedTotal: 110}),
			contains: []string{"over budget"},
			absent:   []string{"░"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ansi.Strip(Render(tt.bar, 20))
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		purchased, planned, budget float64
		width                      int
		wantP, wantPl              int
	}{
		{0, 0, 100, 10, 0, 0},
		{50, 0, 100, 10, 5, 0},
		{20, 30, 100, 10, 2, 3},
		{100, 100, 100, 10, 5, 5},
		{0, 0, 0, 10, 0, 0},
		{-30, 20, 100, 10, 0, 2},
		{20, -50, 100, 10, 2, 0},
		{-30, -20, 100, 10, 0, 0},
		{-30, 20, -5, 10, 0, 10},
	}
	for _, tt := range tests {
		p, pl := segments(tt.purchased, tt.planned, tt.budget, tt.width)
		if p != tt.wantP || pl != tt.wantPl {
			t.Errorf("segments(%v,%v,%v,%d) = %d,%d want %d,%d",
				tt.purchased, tt.planned, tt.budget, tt.width, p, pl, tt.wantP, tt.wantPl)
		}
		if p < 0 || pl < 0 || p+pl > tt.width {
			t.Errorf("segments(%v,%v,%v,%d) out of range: %d,%d", tt.purchased, tt.planned, tt.budget, tt.width, p, pl)
		}
	}
}
