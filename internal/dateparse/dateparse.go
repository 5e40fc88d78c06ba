// Package dateparse turns the date forms people type for occasions into
// ISO 8601 (YYYY-MM-DD) dates, and works out when a yearly occasion next
// falls.
package dateparse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const layout = "2006-01-02"

// ParseOccasionDate parses input relative to the current day.
//
// Supported formats:
//   - Exact dates: "2026-12-25"
//   - Month and day: "12-25", "dec 25", "25 december" (next occurrence, today included)
//   - Relative offsets: "+10d", "+2w", "+1m", "+1y"
//   - Day names: "saturday" (next occurrence, never today)
//   - Keywords: "today", "tomorrow"
func ParseOccasionDate(input string) (string, error) {
	return ParseOccasionDateFrom(input, time.Now())
}

// ParseOccasionDateFrom is ParseOccasionDate with an explicit reference time.
func ParseOccasionDateFrom(input string, now time.Time) (string, error) {
	input = strings.Join(strings.Fields(strings.ToLower(input)), " ")
	if input == "" {
		return "", fmt.Errorf("empty date")
	}
	today := day(now)

	if t, err := time.Parse(layout, input); err == nil {
		return t.Format(layout), nil
	}

	switch input {
	case "today":
		return today.Format(layout), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(layout), nil
	}

	if strings.HasPrefix(input, "+") {
		return relative(input, today)
	}

	if wd, ok := weekdays[input]; ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead).Format(layout), nil
	}

	if month, dom, ok := monthDay(input); ok {
		return nextAnnual(today.Year(), month, dom, today).Format(layout), nil
	}

	return "", fmt.Errorf("unrecognized date %q (use YYYY-MM-DD, MM-DD, \"dec 25\" or +Nd)", input)
}

// NextOccurrence returns the next time an occasion on date falls on or after
// now's day. Recurring occasions roll forward a year at a time; one-off
// occasions that have passed report false.
func NextOccurrence(date string, recurring bool, now time.Time) (time.Time, bool) {
	t, err := time.ParseInLocation(layout, date, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	today := day(now)
	if !t.Before(today) {
		return t, true
	}
	if !recurring {
		return t, false
	}
	return nextAnnual(today.Year(), t.Month(), t.Day(), today), true
}

// DaysUntil counts whole days from now's day to t.
func DaysUntil(t, now time.Time) int {
	return int(math.Round(day(t).Sub(day(now)).Hours() / 24))
}

func relative(input string, today time.Time) (string, error) {
	if len(input) < 3 {
		return "", fmt.Errorf("invalid offset %q", input)
	}
	unit := input[len(input)-1]
	n, err := strconv.Atoi(input[1 : len(input)-1])
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid offset %q", input)
	}
	switch unit {
	case 'd':
		return today.AddDate(0, 0, n).Format(layout), nil
	case 'w':
		return today.AddDate(0, 0, 7*n).Format(layout), nil
	case 'm':
		return today.AddDate(0, n, 0).Format(layout), nil
	case 'y':
		return today.AddDate(n, 0, 0).Format(layout), nil
	}
	return "", fmt.Errorf("unknown unit %q in %q (use d, w, m or y)", string(unit), input)
}

// monthDay recognizes "12-25", "dec 25", "december 25" and "25 dec".
func monthDay(input string) (time.Month, int, bool) {
	if m, d, ok := strings.Cut(input, "-"); ok {
		mi, err1 := strconv.Atoi(m)
		di, err2 := strconv.Atoi(d)
		if err1 == nil && err2 == nil && validDay(time.Month(mi), di) {
			return time.Month(mi), di, true
		}
		return 0, 0, false
	}

	a, b, ok := strings.Cut(input, " ")
	if !ok {
		return 0, 0, false
	}
	if _, err := strconv.Atoi(a); err == nil {
		a, b = b, a
	}
	month, ok := months[strings.TrimSuffix(a, ".")]
	if !ok {
		return 0, 0, false
	}
	dom, err := strconv.Atoi(strings.TrimRight(b, "stndrh,"))
	if err != nil || !validDay(month, dom) {
		return 0, 0, false
	}
	return month, dom, true
}

func validDay(m time.Month, d int) bool {
	if m < time.January || m > time.December || d < 1 {
		return false
	}
	// 2024 is a leap year, so Feb 29 is accepted.
	return d <= time.Date(2024, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nextAnnual finds the first month/day on or after today, starting at year.
// Feb 29 lands on Feb 28 in common years.
func nextAnnual(year int, m time.Month, d int, today time.Time) time.Time {
	for y := year; ; y++ {
		dd := d
		if last := time.Date(y, m+1, 0, 0, 0, 0, 0, today.Location()).Day(); dd > last {
			dd = last
		}
		t := time.Date(y, m, dd, 0, 0, 0, 0, today.Location())
		if !t.Before(today) {
			return t
		}
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}
