package availability

import (
	"strings"

	"github.com/warp/shift-roster/schedule"
)

// ParseDayCell finds the shifts mentioned in a per-day cell. Each shift is
// checked independently, so "Ca 1, ca 3" yields shifts 1 and 3.
func ParseDayCell(text string) []schedule.Shift {
	s := fold(text)
	if s == "" {
		return nil
	}
	var shifts []schedule.Shift
	for _, sk := range shiftKeywords {
		if containsAnyToken(s, sk.Keywords) {
			shifts = append(shifts, sk.Shift)
		}
	}
	return shifts
}

// ParseDescriptor reads one "day + shift" descriptor such as "Thứ 2 - Ca 1"
// or "Sat evening". The first day and the first shift found win. A
// descriptor missing either is rejected.
func ParseDescriptor(text string) (schedule.Slot, bool) {
	s := fold(text)
	if s == "" {
		return schedule.Slot{}, false
	}

	var day schedule.Day
	for _, dk := range dayKeywords {
		if containsAnyToken(s, dk.Keywords) {
			day = dk.Day
			break
		}
	}
	if day == "" {
		return schedule.Slot{}, false
	}

	for _, sk := range shiftKeywords {
		if containsAnyToken(s, sk.Keywords) {
			return schedule.NewSlot(day, sk.Shift), true
		}
	}
	return schedule.Slot{}, false
}

// ParseList splits a list cell on commas, semicolons and line breaks and
// keeps every valid descriptor.
func ParseList(text string) []schedule.Slot {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	var slots []schedule.Slot
	for _, p := range parts {
		if slot, ok := ParseDescriptor(p); ok {
			slots = append(slots, slot)
		}
	}
	return slots
}
