package schedule_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-roster/schedule"
)

func TestParseSlot(t *testing.T) {
	s, err := schedule.ParseSlot(" sun-3 ")
	require.NoError(t, err)
	assert.Equal(t, schedule.NewSlot(schedule.Sunday, schedule.Shift3), s)
	assert.Equal(t, "Sun-3", s.String())

	for _, bad := range []string{"", "Mon", "Mon-4", "Xyz-1", "Mon-x"} {
		_, err := schedule.ParseSlot(bad)
		assert.ErrorIs(t, err, schedule.ErrInvalidSlot, bad)
	}
}

func TestShiftHours(t *testing.T) {
	total := schedule.Shift1.Hours().Add(schedule.Shift2.Hours()).Add(schedule.Shift3.Hours())
	assert.Equal(t, "15.5", total.String())
	assert.Equal(t, "07:00", schedule.Shift1.Window().Start)
	assert.Equal(t, "22:30", schedule.Shift3.Window().End)
	assert.True(t, schedule.Shift(4).Hours().IsZero())
}

func TestSlotSet_SortedAndDistinctDays(t *testing.T) {
	set := schedule.NewSlotSet(slot("Sun-1"), slot("Mon-3"), slot("Mon-1"), slot("Wed-2"))

	assert.Equal(t, []schedule.Slot{slot("Mon-1"), slot("Mon-3"), slot("Wed-2"), slot("Sun-1")}, set.Sorted())
	assert.Equal(t, 3, set.DistinctDays())
}

func TestRegistrationMerge(t *testing.T) {
	// GIVEN: An accumulated registration with a reason
	// WHEN: Merging rows with an empty, a repeated and a new reason
	// THEN: Only the new reason is appended

	r := schedule.Registration{Slots: schedule.NewSlotSet(slot("Mon-1")), Reason: "exams"}
	r.Merge(reg("Tue-2"))
	r.Merge(schedule.Registration{Reason: " exams "})
	r.Merge(schedule.Registration{Reason: "travel", Slots: schedule.NewSlotSet(slot("Mon-1"))})

	assert.Equal(t, "exams | travel", r.Reason)
	assert.Equal(t, []schedule.Slot{slot("Mon-1"), slot("Tue-2")}, r.Slots.Sorted())
}

func TestRegistrationMerge_Commutative(t *testing.T) {
	// GIVEN: Two rows for the same employee
	// WHEN: Merged in either order
	// THEN: Slot sets are equal and reasons differ only in order

	a := schedule.Registration{Slots: schedule.NewSlotSet(slot("Mon-1"), slot("Fri-3")), Reason: "class"}
	b := schedule.Registration{Slots: schedule.NewSlotSet(slot("Fri-3"), slot("Sat-2")), Reason: "part-time job"}

	var ab, ba schedule.Registration
	ab.Merge(a)
	ab.Merge(b)
	ba.Merge(b)
	ba.Merge(a)

	assert.Equal(t, ab.Slots.Sorted(), ba.Slots.Sorted())
	assert.Equal(t, splitReasons(ab.Reason), splitReasons(ba.Reason))
}

func splitReasons(s string) []string {
	parts := strings.Split(s, schedule.ReasonSeparator)
	sort.Strings(parts)
	return parts
}

func TestRoster_Validate(t *testing.T) {
	var nilRoster schedule.Roster
	assert.ErrorIs(t, nilRoster.Validate(), schedule.ErrNoRoster)

	r := schedule.NewRoster()
	require.NoError(t, r.Validate())

	delete(r[schedule.Friday], schedule.Shift2)
	assert.ErrorIs(t, r.Validate(), schedule.ErrIncompleteRoster)

	r = schedule.NewRoster()
	r[schedule.Monday][schedule.Shift1] = []string{"a", "b", "c"}
	assert.ErrorIs(t, r.Validate(), schedule.ErrCapacityExceeded)
}

func TestRoster_CloneIsDeep(t *testing.T) {
	r := schedule.NewRoster()
	r[schedule.Monday][schedule.Shift1] = []string{"a"}

	c := r.Clone()
	c[schedule.Monday][schedule.Shift1][0] = "z"

	assert.Equal(t, []string{"a"}, r.Cell(schedule.Monday, schedule.Shift1))
}

func TestErrorClassification(t *testing.T) {
	ingest := &schedule.IngestionError{Source: "sheet", StatusCode: 503}
	assert.True(t, schedule.IsRetryable(ingest))
	assert.False(t, schedule.IsPolicyViolation(ingest))

	locked := &schedule.WeekLockedError{Key: "20/10 - 26/10"}
	assert.True(t, schedule.IsPolicyViolation(locked))
	assert.False(t, schedule.IsRetryable(locked))
	assert.Contains(t, locked.Error(), "20/10 - 26/10")

	assert.True(t, schedule.IsClientError(schedule.ErrNoRoster))
}
