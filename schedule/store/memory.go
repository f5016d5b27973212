// Package store provides in-process HistoryStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shift-roster/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	history schedule.History
	audit   []schedule.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{history: make(schedule.History)}
}

// Commit locks a week. Append-only.
func (m *Memory) Commit(_ context.Context, key schedule.WeekKey, roster schedule.Roster) error {
	if err := roster.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.history[key]; ok {
		return &schedule.WeekLockedError{Key: key}
	}
	m.history[key] = roster.Clone()
	return nil
}

// Load returns a deep copy so callers can never reach stored rosters.
func (m *Memory) Load(_ context.Context) (schedule.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(schedule.History, len(m.history))
	for k, r := range m.history {
		out[k] = r.Clone()
	}
	return out, nil
}

func (m *Memory) Exists(_ context.Context, key schedule.WeekKey) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.history[key]
	return ok, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry schedule.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// QueryAudit returns entries for week in timestamp order. An empty week
// returns everything.
func (m *Memory) QueryAudit(_ context.Context, week schedule.WeekKey) ([]schedule.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.AuditEntry
	for _, e := range m.audit {
		if week == "" || e.Week == week {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}
