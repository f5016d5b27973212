/*
planner.go - Stateful roster session for the upcoming week

PURPOSE:
  Ties the pure Engine to persisted History. The Planner owns the
  in-progress draft for the target week and is the only component that
  commits rosters.

LIFECYCLE:
  Generate -> (Generate again ...) -> Lock
  Generating replaces the draft freely until the week is locked. Locking
  commits the draft to the HistoryStore; from then on Generate and Lock
  both fail with WeekLockedError and Current serves the stored roster.

TARGET WEEK:
  Always the calendar week after "now". When the clock rolls into a new
  week, a draft built for the previous target is discarded.

SEE ALSO:
  - assignment.go: Produces the draft
  - store.go: HistoryStore and AuditLog
*/
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CurrentRoster is the roster served for the target week.
type CurrentRoster struct {
	Key    WeekKey
	Roster Roster
	Locked bool
}

// Planner manages the draft and lock for the upcoming week.
type Planner struct {
	store  HistoryStore
	engine *Engine
	now    func() time.Time
	log    zerolog.Logger

	mu       sync.Mutex
	draft    Roster
	draftKey WeekKey
	outcome  Outcome
}

type PlannerOption func(*Planner)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) { p.now = now }
}

func WithLogger(log zerolog.Logger) PlannerOption {
	return func(p *Planner) { p.log = log }
}

func NewPlanner(store HistoryStore, engine *Engine, opts ...PlannerOption) *Planner {
	if engine == nil {
		engine = NewEngine(nil)
	}
	p := &Planner{
		store:  store,
		engine: engine,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Week returns the target week.
func (p *Planner) Week() Week {
	return NextWeek(p.now())
}

// Generate builds a new draft for the target week from regs. A locked week
// returns WeekLockedError and leaves everything unchanged.
func (p *Planner) Generate(ctx context.Context, regs Registrations, employees []Employee) (Outcome, error) {
	key := p.Week().Key()

	// Held across the lock check so a concurrent Lock cannot commit between
	// the check and the draft swap.
	p.mu.Lock()
	defer p.mu.Unlock()

	locked, err := p.store.Exists(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("check lock for %s: %w", key, err)
	}

	out := p.engine.Assign(regs, employees, locked)
	if out.Unchanged {
		return out, &WeekLockedError{Key: key}
	}

	p.draft = out.Roster
	p.draftKey = key
	p.outcome = out

	p.log.Info().
		Str("week", string(key)).
		Int("registrants", len(regs)).
		Int("underfilled", len(out.Underfilled)).
		Msg("roster generated")
	p.audit(ctx, NewAuditEntry(AuditRosterGenerated, key, p.now(), map[string]any{
		"underfilled": len(out.Underfilled),
	}))
	return out, nil
}

// Current returns the locked roster for the target week if there is one,
// otherwise the draft. ErrNoRoster means neither exists. A locked week whose
// history cannot be read is reported as locked with a nil Roster.
func (p *Planner) Current(ctx context.Context) (CurrentRoster, error) {
	key := p.Week().Key()

	locked, err := p.Locked(ctx)
	if err != nil {
		return CurrentRoster{}, err
	}
	if locked {
		history := LoadHistory(ctx, p.store, p.log)
		return CurrentRoster{Key: key, Roster: history[key].Clone(), Locked: true}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft == nil || p.draftKey != key {
		return CurrentRoster{Key: key}, ErrNoRoster
	}
	return CurrentRoster{Key: key, Roster: p.draft.Clone()}, nil
}

// Locked reports whether the target week has been committed.
func (p *Planner) Locked(ctx context.Context) (bool, error) {
	key := p.Week().Key()
	locked, err := p.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check lock for %s: %w", key, err)
	}
	return locked, nil
}

// Lock commits the draft for the target week.
func (p *Planner) Lock(ctx context.Context) (CurrentRoster, error) {
	key := p.Week().Key()

	p.mu.Lock()
	defer p.mu.Unlock()

	locked, err := p.store.Exists(ctx, key)
	if err != nil {
		return CurrentRoster{}, fmt.Errorf("check lock for %s: %w", key, err)
	}
	if locked {
		return CurrentRoster{}, &WeekLockedError{Key: key}
	}
	if p.draft == nil || p.draftKey != key {
		return CurrentRoster{}, ErrNoRoster
	}

	if err := p.store.Commit(ctx, key, p.draft); err != nil {
		return CurrentRoster{}, err
	}

	committed := p.draft
	p.draft = nil
	p.draftKey = ""

	p.log.Info().Str("week", string(key)).Msg("roster locked")
	p.audit(ctx, NewAuditEntry(AuditRosterLocked, key, p.now(), map[string]any{
		"assigned": len(committed.Counts()),
	}))
	return CurrentRoster{Key: key, Roster: committed.Clone(), Locked: true}, nil
}

// LastOutcome returns the engine outcome behind the current draft.
func (p *Planner) LastOutcome() (Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft == nil || p.draftKey != p.Week().Key() {
		return Outcome{}, false
	}
	return p.outcome, true
}

// Load reports cumulative load for employees, reading history fresh.
func (p *Planner) Load(ctx context.Context, employees []Employee) []LoadEntry {
	key := p.Week().Key()
	history := LoadHistory(ctx, p.store, p.log)

	current := history[key]
	if current == nil {
		p.mu.Lock()
		if p.draftKey == key {
			current = p.draft
		}
		p.mu.Unlock()
	}
	return CumulativeLoad(current, employees, history, key)
}

// History returns the locked weeks, degraded to empty on failure.
func (p *Planner) History(ctx context.Context) History {
	return LoadHistory(ctx, p.store, p.log)
}

func (p *Planner) audit(ctx context.Context, entry AuditEntry) {
	log, ok := p.store.(AuditLog)
	if !ok {
		return
	}
	if err := log.AppendAudit(ctx, entry); err != nil {
		p.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("audit append failed")
	}
}
