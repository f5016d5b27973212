package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/shift-roster/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 0, 0, time.UTC)
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name   string
		at     time.Time
		monday time.Time
	}{
		{"monday", date(2025, time.October, 13), date(2025, time.October, 13)},
		{"wednesday", date(2025, time.October, 15), date(2025, time.October, 13)},
		{"sunday belongs to the previous monday", date(2025, time.October, 19), date(2025, time.October, 13)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := schedule.WeekOf(tt.at)
			assert.Equal(t, tt.monday.Truncate(24*time.Hour), w.Monday)
		})
	}
}

func TestNextWeekKey(t *testing.T) {
	// GIVEN: A Sunday near a month boundary
	// WHEN: Computing next week's key
	// THEN: The key spans the following Monday-Sunday, zero-padded

	w := schedule.NextWeek(date(2025, time.October, 26))

	assert.Equal(t, schedule.WeekKey("27/10 - 02/11"), w.Key())
	assert.Equal(t, "01/11", w.Label(schedule.Saturday))
	assert.Equal(t, "02/11", w.Label(schedule.Sunday))
}
