/*
Package schedule provides the core shift-roster engine.

PURPOSE:
  This package contains the scheduling vocabulary (days, shifts, slots),
  the per-employee availability record, the weekly roster grid, and the
  algorithms that fill that grid and account for it across weeks. It has
  no knowledge of where availability text comes from or how history is
  persisted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Day / Shift: the fixed 7x3 week grid
  - Slot: one (day, shift) bookable unit, text form "Mon-1"
  - Registration: claimed slots plus an optional free-text reason
  - Roster: day -> shift -> ordered employee names
  - WeekKey / History: locked rosters keyed by "DD/MM - DD/MM"

DESIGN PRINCIPLES:
  1. Completeness: a generated Roster always has all 21 cells
  2. Capacity: no cell ever holds more than ShiftCapacity names
  3. Immutability: a roster stored in History is never replaced
  4. Precision: shift hours use decimal.Decimal (5.5h shifts exist)

SEE ALSO:
  - assignment.go: Engine that produces a Roster
  - load.go: Cumulative load across History
  - directory.go: Employee universe
*/
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ShiftCapacity is the maximum number of employees assigned to one cell.
const ShiftCapacity = 2

// =============================================================================
// DAY
// =============================================================================

type Day string

const (
	Monday    Day = "Mon"
	Tuesday   Day = "Tue"
	Wednesday Day = "Wed"
	Thursday  Day = "Thu"
	Friday    Day = "Fri"
	Saturday  Day = "Sat"
	Sunday    Day = "Sun"
)

// Days lists the days in roster order (Monday first).
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the 0-based position of d in the week, or -1.
func (d Day) Index() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return -1
}

func (d Day) Valid() bool     { return d.Index() >= 0 }
func (d Day) IsWeekend() bool { return d == Saturday || d == Sunday }

// ParseDay accepts the canonical three-letter code, case-insensitively.
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Days {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// =============================================================================
// SHIFT
// =============================================================================

type Shift int

const (
	Shift1 Shift = 1 // morning
	Shift2 Shift = 2 // afternoon
	Shift3 Shift = 3 // evening
)

// Shifts lists the shifts in roster order.
var Shifts = []Shift{Shift1, Shift2, Shift3}

// ShiftWindow is the fixed wall-clock range of a shift.
type ShiftWindow struct {
	Start string
	End   string
	Hours decimal.Decimal
}

var shiftWindows = map[Shift]ShiftWindow{
	Shift1: {Start: "07:00", End: "12:30", Hours: decimal.RequireFromString("5.5")},
	Shift2: {Start: "12:30", End: "17:30", Hours: decimal.NewFromInt(5)},
	Shift3: {Start: "17:30", End: "22:30", Hours: decimal.NewFromInt(5)},
}

func (s Shift) Valid() bool { _, ok := shiftWindows[s]; return ok }

// Window returns the time range for s. Invalid shifts return a zero window.
func (s Shift) Window() ShiftWindow { return shiftWindows[s] }

func (s Shift) Hours() decimal.Decimal {
	w, ok := shiftWindows[s]
	if !ok {
		return decimal.Zero
	}
	return w.Hours
}

func (s Shift) String() string { return strconv.Itoa(int(s)) }

// =============================================================================
// SLOT
// =============================================================================

// Slot is one bookable (day, shift) unit.
type Slot struct {
	Day   Day
	Shift Shift
}

func NewSlot(d Day, s Shift) Slot { return Slot{Day: d, Shift: s} }

func (s Slot) Valid() bool { return s.Day.Valid() && s.Shift.Valid() }

func (s Slot) String() string { return string(s.Day) + "-" + s.Shift.String() }

// ParseSlot parses the "Mon-1" text form.
func ParseSlot(text string) (Slot, error) {
	day, shift, ok := strings.Cut(strings.TrimSpace(text), "-")
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, text)
	}
	d, ok := ParseDay(day)
	if !ok {
		return Slot{}, fmt.Errorf("%w: unknown day in %q", ErrInvalidSlot, text)
	}
	n, err := strconv.Atoi(strings.TrimSpace(shift))
	if err != nil || !Shift(n).Valid() {
		return Slot{}, fmt.Errorf("%w: unknown shift in %q", ErrInvalidSlot, text)
	}
	return Slot{Day: d, Shift: Shift(n)}, nil
}

func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidSlot, s)
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	parsed, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// less orders slots by day, then shift.
func (s Slot) less(o Slot) bool {
	if s.Day != o.Day {
		return s.Day.Index() < o.Day.Index()
	}
	return s.Shift < o.Shift
}

// SlotSet is an unordered set of slots.
type SlotSet map[Slot]struct{}

func NewSlotSet(slots ...Slot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, s := range slots {
		set.Add(s)
	}
	return set
}

func (ss SlotSet) Add(s Slot)      { ss[s] = struct{}{} }
func (ss SlotSet) Has(s Slot) bool { _, ok := ss[s]; return ok }
func (ss SlotSet) Len() int        { return len(ss) }

// Union adds every slot of other to ss.
func (ss SlotSet) Union(other SlotSet) {
	for s := range other {
		ss[s] = struct{}{}
	}
}

// Sorted returns the slots in roster order.
func (ss SlotSet) Sorted() []Slot {
	out := make([]Slot, 0, len(ss))
	for s := range ss {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// DistinctDays counts how many different days appear in the set.
func (ss SlotSet) DistinctDays() int {
	days := make(map[Day]struct{})
	for s := range ss {
		days[s.Day] = struct{}{}
	}
	return len(days)
}

func (ss SlotSet) Clone() SlotSet {
	out := make(SlotSet, len(ss))
	out.Union(ss)
	return out
}

// =============================================================================
// REGISTRATION - One employee's availability submission
// =============================================================================

// ReasonSeparator joins reasons from duplicate submissions.
const ReasonSeparator = " | "

type Registration struct {
	Slots  SlotSet
	Reason string
}

// Merge folds other into r: slots are unioned, and other's reason is
// appended unless it is empty or already contained in r's reason.
func (r *Registration) Merge(other Registration) {
	if r.Slots == nil {
		r.Slots = make(SlotSet)
	}
	r.Slots.Union(other.Slots)

	reason := strings.TrimSpace(other.Reason)
	if reason == "" || strings.Contains(r.Reason, reason) {
		return
	}
	if r.Reason == "" {
		r.Reason = reason
		return
	}
	r.Reason = r.Reason + ReasonSeparator + reason
}

func (r Registration) Clone() Registration {
	return Registration{Slots: r.Slots.Clone(), Reason: r.Reason}
}

// Registrations maps an employee display name to its merged registration.
type Registrations map[string]Registration

func (rs Registrations) Clone() Registrations {
	out := make(Registrations, len(rs))
	for name, reg := range rs {
		out[name] = reg.Clone()
	}
	return out
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeID string

type Employee struct {
	ID   EmployeeID
	Name string
}

// =============================================================================
// ROSTER - The weekly day x shift grid
// =============================================================================

// Roster maps every (day, shift) cell to the ordered names assigned to it.
// A nil Roster means "not generated"; an empty cell means "generated but
// unfilled".
type Roster map[Day]map[Shift][]string

// NewRoster returns a roster with all 21 cells present and empty.
func NewRoster() Roster {
	r := make(Roster, len(Days))
	for _, d := range Days {
		r[d] = make(map[Shift][]string, len(Shifts))
		for _, s := range Shifts {
			r[d][s] = []string{}
		}
	}
	return r
}

// Cell returns the names in (d, s). Missing cells read as empty.
func (r Roster) Cell(d Day, s Shift) []string {
	if r == nil || r[d] == nil {
		return nil
	}
	return r[d][s]
}

// Contains reports whether name is assigned to (d, s).
func (r Roster) Contains(d Day, s Shift, name string) bool {
	for _, n := range r.Cell(d, s) {
		if n == name {
			return true
		}
	}
	return false
}

// Counts returns the number of cells each name appears in.
func (r Roster) Counts() map[string]int {
	counts := make(map[string]int)
	for _, d := range Days {
		for _, s := range Shifts {
			for _, name := range r.Cell(d, s) {
				counts[name]++
			}
		}
	}
	return counts
}

// Validate checks the committed-roster contract: every cell present and
// none over capacity.
func (r Roster) Validate() error {
	if r == nil {
		return ErrNoRoster
	}
	for _, d := range Days {
		shifts, ok := r[d]
		if !ok {
			return fmt.Errorf("%w: missing day %s", ErrIncompleteRoster, d)
		}
		for _, s := range Shifts {
			names, ok := shifts[s]
			if !ok {
				return fmt.Errorf("%w: missing cell %s", ErrIncompleteRoster, NewSlot(d, s))
			}
			if len(names) > ShiftCapacity {
				return fmt.Errorf("%w: %s has %d names", ErrCapacityExceeded, NewSlot(d, s), len(names))
			}
		}
	}
	return nil
}

func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	for d, shifts := range r {
		out[d] = make(map[Shift][]string, len(shifts))
		for s, names := range shifts {
			out[d][s] = append([]string{}, names...)
		}
	}
	return out
}

// =============================================================================
// HISTORY
// =============================================================================

// WeekKey identifies a calendar week, e.g. "13/10 - 19/10".
type WeekKey string

// History maps locked weeks to their rosters.
type History map[WeekKey]Roster

// Locked reports whether key already has a committed roster.
func (h History) Locked(key WeekKey) bool {
	_, ok := h[key]
	return ok
}

// Keys returns the week keys in lexical order.
func (h History) Keys() []WeekKey {
	keys := make([]WeekKey, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
