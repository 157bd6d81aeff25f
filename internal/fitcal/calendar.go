package fitcal

import (
	"fmt"
	"time"
)

// ViewMode is a calendar view granularity.
type ViewMode string

const (
	ViewDay     ViewMode = "day"
	ViewWeek    ViewMode = "week"
	ViewMonth   ViewMode = "month"
	ViewYear    ViewMode = "year"
	ViewHeatmap ViewMode = "heatmap" // yearly heatmap; same window as ViewYear
)

// ValidViewMode reports whether mode is a known view granularity.
func ValidViewMode(mode ViewMode) bool {
	switch mode {
	case ViewDay, ViewWeek, ViewMonth, ViewYear, ViewHeatmap:
		return true
	}
	return false
}

// DateKey formats a time as the canonical "YYYY-MM-DD" range key. This is the
// same string form stored in the Date field of activities and body log
// entries, so range comparisons stay lexicographic.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDateKey parses a canonical "YYYY-MM-DD" key back into a time.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}, &ValidationError{Reason: fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", key)}
	}
	return t, nil
}

// ValidDateKey reports whether key is a well-formed "YYYY-MM-DD" date.
func ValidDateKey(key string) bool {
	_, err := time.Parse("2006-01-02", key)
	return err == nil
}

// DateRange computes the inclusive [start, end] window for a view anchored at
// the given date. weekStart controls which weekday opens a week view.
// The computation is pure and stateless.
func DateRange(anchor time.Time, mode ViewMode, weekStart time.Weekday) (start, end time.Time) {
	y, m, d := anchor.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, anchor.Location())

	switch mode {
	case ViewDay:
		return day, day
	case ViewWeek:
		offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
		start = day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case ViewMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location())
		return start, start.AddDate(0, 1, -1)
	default: // ViewYear, ViewHeatmap
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, anchor.Location())
		return start, time.Date(y, time.December, 31, 0, 0, 0, 0, anchor.Location())
	}
}

// RangeKeys returns the inclusive window for a view as canonical date keys,
// ready to feed to Store range queries.
func RangeKeys(anchor time.Time, mode ViewMode, weekStart time.Weekday) (startKey, endKey string) {
	start, end := DateRange(anchor, mode, weekStart)
	return DateKey(start), DateKey(end)
}

// Navigate steps the anchor date by one unit of the view. direction is +1
// for forward and -1 for backward.
func Navigate(anchor time.Time, mode ViewMode, direction int) time.Time {
	switch mode {
	case ViewDay:
		return anchor.AddDate(0, 0, direction)
	case ViewWeek:
		return anchor.AddDate(0, 0, 7*direction)
	case ViewMonth:
		return anchor.AddDate(0, direction, 0)
	default: // ViewYear, ViewHeatmap
		return anchor.AddDate(direction, 0, 0)
	}
}

// ViewTitle renders the display heading for a view anchored at the given date.
func ViewTitle(anchor time.Time, mode ViewMode, weekStart time.Weekday) string {
	switch mode {
	case ViewDay:
		return anchor.Format("Monday, January 2, 2006")
	case ViewWeek:
		start, end := DateRange(anchor, ViewWeek, weekStart)
		if start.Month() == end.Month() {
			return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("2, 2006"))
		}
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	case ViewMonth:
		return anchor.Format("January 2006")
	default: // ViewYear, ViewHeatmap
		return anchor.Format("2006")
	}
}
