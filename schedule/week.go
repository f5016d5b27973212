package schedule

import (
	"fmt"
	"time"
)

// =============================================================================
// WEEK - Monday-start calendar week
// =============================================================================

// Week is a Monday-start calendar week. Monday is midnight in the
// location of the time it was derived from.
type Week struct {
	Monday time.Time
}

// WeekOf returns the week containing t. Sunday counts as the seventh day,
// six days after Monday.
func WeekOf(t time.Time) Week {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Week{Monday: midnight.AddDate(0, 0, -offset)}
}

// NextWeek returns the week after the one containing now. Rosters are
// always built for next week.
func NextWeek(now time.Time) Week {
	return WeekOf(now).Next()
}

func (w Week) Next() Week { return Week{Monday: w.Monday.AddDate(0, 0, 7)} }
func (w Week) Sunday() time.Time {
	return w.Monday.AddDate(0, 0, 6)
}

// Date returns the calendar date of d in this week.
func (w Week) Date(d Day) time.Time {
	idx := d.Index()
	if idx < 0 {
		return time.Time{}
	}
	return w.Monday.AddDate(0, 0, idx)
}

// Label formats d's date as "DD/MM".
func (w Week) Label(d Day) string {
	return dayMonth(w.Date(d))
}

// Key returns the "DD/MM - DD/MM" history key for this week.
func (w Week) Key() WeekKey {
	return WeekKey(fmt.Sprintf("%s - %s", dayMonth(w.Monday), dayMonth(w.Sunday())))
}

func dayMonth(t time.Time) string {
	return fmt.Sprintf("%02d/%02d", t.Day(), int(t.Month()))
}
