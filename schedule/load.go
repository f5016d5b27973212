package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CUMULATIVE LOAD - Shifts worked across locked weeks plus the current draft
// =============================================================================

// LoadEntry is one employee's workload.
type LoadEntry struct {
	EmployeeID   EmployeeID
	Name         string
	Current      int             // shifts in the current roster
	Total        int             // Current plus every other week in history
	CurrentHours decimal.Decimal // hours in the current roster
	Hours        decimal.Decimal // hours across Total
}

// CumulativeLoad reports, for every employee, the shifts in current plus the
// shifts in every history week except currentKey. The current week is
// excluded from history so a locked current roster is not counted twice.
// current may be nil. Entries are sorted by Total, highest first; equal
// totals keep directory order. history is never modified.
func CumulativeLoad(current Roster, employees []Employee, history History, currentKey WeekKey) []LoadEntry {
	entries := make([]LoadEntry, 0, len(employees))
	for _, e := range employees {
		count, hours := shiftsFor(current, e.Name)
		entries = append(entries, LoadEntry{
			EmployeeID:   e.ID,
			Name:         e.Name,
			Current:      count,
			Total:        count,
			CurrentHours: hours,
			Hours:        hours,
		})
	}

	for key, roster := range history {
		if key == currentKey {
			continue
		}
		for i := range entries {
			count, hours := shiftsFor(roster, entries[i].Name)
			entries[i].Total += count
			entries[i].Hours = entries[i].Hours.Add(hours)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	return entries
}

func shiftsFor(r Roster, name string) (int, decimal.Decimal) {
	count := 0
	hours := decimal.Zero
	for _, d := range Days {
		for _, s := range Shifts {
			if r.Contains(d, s, name) {
				count++
				hours = hours.Add(s.Hours())
			}
		}
	}
	return count, hours
}
