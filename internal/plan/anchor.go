package plan

import (
	"fmt"
	"math"
	"time"
)

// Anchor fixes the training plan to the calendar: week 1 starts on Start and
// the plan runs for Weeks weeks.
type Anchor struct {
	Start time.Time
	Weeks int
}

// NewAnchor parses a YYYY-MM-DD start date in loc.
func NewAnchor(startDate string, weeks int, loc *time.Location) (Anchor, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, loc)
	if err != nil {
		return Anchor{}, fmt.Errorf("parsing plan start date %q: %w", startDate, err)
	}
	if weeks <= 0 {
		return Anchor{}, fmt.Errorf("plan weeks must be positive, got %d", weeks)
	}
	return Anchor{Start: start, Weeks: weeks}, nil
}

// WeekOf returns the 1-based plan week containing t, clamped to [1, Weeks].
func (a Anchor) WeekOf(t time.Time) int {
	t = t.In(a.Start.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.Start.Location())
	if day.Before(a.Start) {
		return 1
	}
	days := int(math.Round(day.Sub(a.Start).Hours() / 24))
	week := days/7 + 1
	return min(max(week, 1), a.Weeks)
}

// DateOf returns the calendar date of the given plan week and weekday (1=Monday).
// The anchor start is treated as the first day of week 1.
func (a Anchor) DateOf(week, day int) time.Time {
	return a.Start.AddDate(0, 0, (week-1)*7+(day-1))
}

// Weekday converts t to the plan's 1=Monday..7=Sunday numbering.
func Weekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
