/*
assignment.go - Weekly roster generation from registrations

PURPOSE:
  Turns per-employee availability into a conflict-free, fairness-balanced
  weekly roster. This is the only place names are placed into cells.

ALGORITHM:
  Cells are filled in fixed order, Mon..Sun and shift 1..3 within a day.
  For each cell:
  1. Candidates = everyone whose registration contains the slot
  2. Continuity (shift 3 only): drop anyone already on shift 1 of that day
     who is not also on shift 2 ("no broken shift")
  3. Fairness: TieBreaker permutes candidates, then a stable sort orders
     them by running assigned count (ascending)
  4. Capacity: the first ShiftCapacity candidates are assigned and their
     running counts incremented
  Cells with fewer eligible candidates stay under-filled. That is a valid
  outcome and is reported, not raised.

DETERMINISM:
  With no ties in running counts the result is fully determined by the
  registrations. Ties are resolved by the TieBreaker:
  - RandomTieBreaker: seeded shuffle, re-running may differ
  - OrderedTieBreaker: keeps universe order, for tests and audits

LOCKING:
  Assign is given the lock state of the target week. A locked week yields
  Outcome{Unchanged: true} and no roster; the engine never produces a
  replacement for a locked week.

EXAMPLE:
  engine := schedule.NewEngine(schedule.NewRandomTieBreaker(42))
  out := engine.Assign(regs, directory.Employees(), history.Locked(key))
  if out.Unchanged {
      // week already locked
  }

SEE ALSO:
  - planner.go: Owns the lock check against a HistoryStore
  - load.go: Aggregates assigned counts across weeks
*/
package schedule

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// TIE BREAKING
// =============================================================================

// TieBreaker permutes a candidate list before the stable sort by running
// count, which decides the order among equally loaded candidates.
type TieBreaker interface {
	Permute(candidates []string)
}

// OrderedTieBreaker leaves candidates in universe order.
type OrderedTieBreaker struct{}

func (OrderedTieBreaker) Permute([]string) {}

// RandomTieBreaker shuffles candidates with a seeded source.
type RandomTieBreaker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomTieBreaker creates a shuffling tie-breaker. A zero seed uses
// the current time.
func NewRandomTieBreaker(seed int64) *RandomTieBreaker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomTieBreaker{rng: rand.New(rand.NewSource(seed))}
}

func (t *RandomTieBreaker) Permute(candidates []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine fills a weekly roster. It holds no per-run state and can be
// shared; RandomTieBreaker serializes its own source.
type Engine struct {
	Capacity int
	TieBreak TieBreaker
}

// NewEngine returns an engine with the standard capacity. A nil
// tie-breaker keeps universe order.
func NewEngine(tb TieBreaker) *Engine {
	if tb == nil {
		tb = OrderedTieBreaker{}
	}
	return &Engine{Capacity: ShiftCapacity, TieBreak: tb}
}

// CellDecision records how a single cell was filled.
type CellDecision struct {
	Slot       Slot
	Candidates []string // registered for the slot
	Excluded   []string // removed by the continuity filter
	Ranked     []string // eligible candidates after fairness ranking
	Assigned   []string
	CountsAt   map[string]int // running counts before this cell
}

// Outcome is the result of one engine run.
type Outcome struct {
	// Unchanged is true when the week was locked and nothing was generated.
	Unchanged bool

	Roster      Roster
	Counts      map[string]int // assigned shifts per name
	Underfilled []Slot         // cells with fewer than Capacity names
	Decisions   []CellDecision
}

// Assign builds the roster for one week.
func (e *Engine) Assign(regs Registrations, universe []Employee, locked bool) Outcome {
	if locked {
		return Outcome{Unchanged: true}
	}

	capacity := e.Capacity
	if capacity <= 0 {
		capacity = ShiftCapacity
	}
	tb := e.TieBreak
	if tb == nil {
		tb = OrderedTieBreaker{}
	}

	order := candidateOrder(regs, universe)
	roster := NewRoster()
	counts := make(map[string]int, len(order))
	for _, name := range order {
		counts[name] = 0
	}

	out := Outcome{Roster: roster, Counts: counts}

	for _, day := range Days {
		for _, shift := range Shifts {
			slot := NewSlot(day, shift)

			var candidates []string
			for _, name := range order {
				if reg, ok := regs[name]; ok && reg.Slots.Has(slot) {
					candidates = append(candidates, name)
				}
			}

			eligible := make([]string, 0, len(candidates))
			var excluded []string
			for _, name := range candidates {
				if shift == Shift3 && breaksShift(roster, day, name) {
					excluded = append(excluded, name)
					continue
				}
				eligible = append(eligible, name)
			}

			before := make(map[string]int, len(eligible))
			for _, name := range eligible {
				before[name] = counts[name]
			}

			tb.Permute(eligible)
			sort.SliceStable(eligible, func(i, j int) bool {
				return counts[eligible[i]] < counts[eligible[j]]
			})

			n := capacity
			if len(eligible) < n {
				n = len(eligible)
			}
			selected := append([]string{}, eligible[:n]...)
			roster[day][shift] = selected
			for _, name := range selected {
				counts[name]++
			}

			if len(selected) < capacity {
				out.Underfilled = append(out.Underfilled, slot)
			}
			out.Decisions = append(out.Decisions, CellDecision{
				Slot:       slot,
				Candidates: candidates,
				Excluded:   excluded,
				Ranked:     eligible,
				Assigned:   selected,
				CountsAt:   before,
			})
		}
	}

	return out
}

// breaksShift reports whether adding name to shift 3 of day would leave a
// gap: on shift 1 but not shift 2.
func breaksShift(r Roster, day Day, name string) bool {
	return r.Contains(day, Shift1, name) && !r.Contains(day, Shift2, name)
}

// candidateOrder lists every registrant: universe order first, then any
// registrant missing from the universe, sorted by name.
func candidateOrder(regs Registrations, universe []Employee) []string {
	seen := make(map[string]bool, len(universe))
	order := make([]string, 0, len(universe)+len(regs))
	for _, e := range universe {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		if _, ok := regs[e.Name]; ok {
			order = append(order, e.Name)
		}
	}

	var extra []string
	for name := range regs {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
