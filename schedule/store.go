/*
store.go - Persistence interface for locked rosters

PURPOSE:
  Defines the boundary between the roster engine and whatever keeps
  History between runs. The engine never writes history itself; only the
  Planner commits, and only through this interface.

APPEND-ONLY CONTRACT:
  - Commit(): writes one week, fails with WeekLockedError if the key exists
  - NO Update() or Delete() methods exist
  A locked roster is therefore never replaced, even by a concurrent
  writer: implementations make the existence check and the write a single
  atomic step.

DEGRADED READS:
  History feeds fairness reporting, not correctness. LoadHistory turns a
  read or decode failure into an empty History with a warning so a
  damaged store never blocks roster generation.

IMPLEMENTATIONS:
  - schedule/store/memory.go: In-memory for testing and demos
  - store/sqlite/sqlite.go: SQLite via database/sql
  - store/redis/redis.go: Redis hash with HSETNX

SEE ALSO:
  - planner.go: The only caller of Commit
*/
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// HISTORY STORE - Interface for locked roster persistence (append-only)
// =============================================================================

// HistoryStore persists locked weekly rosters.
type HistoryStore interface {
	// Load returns every locked week. Undecodable data yields ErrHistoryCorrupt.
	Load(ctx context.Context) (History, error)

	// Exists reports whether key is locked.
	Exists(ctx context.Context, key WeekKey) (bool, error)

	// Commit locks roster under key. Returns WeekLockedError if key exists
	// and ErrIncompleteRoster/ErrCapacityExceeded for invalid rosters.
	Commit(ctx context.Context, key WeekKey, roster Roster) error
}

// LoadHistory reads the store, degrading any failure to an empty History.
func LoadHistory(ctx context.Context, store HistoryStore, log zerolog.Logger) History {
	h, err := store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable, continuing with empty history")
		return History{}
	}
	if h == nil {
		return History{}
	}
	return h
}

// =============================================================================
// AUDIT LOG - Tracks roster actions, separate from History
// =============================================================================

type AuditAction string

const (
	AuditRosterGenerated AuditAction = "roster_generated"
	AuditRosterLocked    AuditAction = "roster_locked"
)

// AuditEntry records one roster action.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Action    AuditAction
	Week      WeekKey
	Payload   map[string]any
}

// NewAuditEntry stamps an entry with a fresh id.
func NewAuditEntry(action AuditAction, week WeekKey, at time.Time, payload map[string]any) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: at,
		Action:    action,
		Week:      week,
		Payload:   payload,
	}
}

// AuditLog stores audit entries. Also append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, week WeekKey) ([]AuditEntry, error)
}
