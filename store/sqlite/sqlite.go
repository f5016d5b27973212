/*
Package sqlite provides a SQLite-backed HistoryStore.

PURPOSE:
  Persists locked weekly rosters and the roster audit trail so history
  survives restarts.

INTERFACES IMPLEMENTED:
  schedule.HistoryStore: Locked roster persistence
  schedule.AuditLog:     Roster audit entries

APPEND-ONLY ENFORCEMENT:
  - weekly_rosters.week_key is the PRIMARY KEY; a second INSERT for the
    same week fails with a unique constraint and becomes WeekLockedError
  - No UPDATE or DELETE statements exist for either table

KEY TABLES:
  weekly_rosters: week_key -> roster_json
  roster_audit:   one row per generate/lock action

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the single writer.

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  planner := schedule.NewPlanner(store, engine)

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/shift-roster/schedule"
)

// auditTimeLayout is fixed-width so created_at sorts lexically.
const auditTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements schedule.HistoryStore and schedule.AuditLog.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would open its own empty in-memory database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Locked rosters (append-only)
	CREATE TABLE IF NOT EXISTS weekly_rosters (
		week_key TEXT PRIMARY KEY,
		roster_json TEXT NOT NULL,
		locked_at TEXT NOT NULL
	);

	-- Roster actions
	CREATE TABLE IF NOT EXISTS roster_audit (
		id TEXT PRIMARY KEY,
		week_key TEXT NOT NULL,
		action TEXT NOT NULL,
		payload_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_roster_audit_week
		ON roster_audit(week_key, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HISTORY STORE (schedule.HistoryStore interface)
// =============================================================================

// Commit locks a week. Append-only.
func (s *Store) Commit(ctx context.Context, key schedule.WeekKey, roster schedule.Roster) error {
	data, err := schedule.EncodeRoster(roster)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_rosters (week_key, roster_json, locked_at) VALUES (?, ?, ?)`,
		string(key),
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &schedule.WeekLockedError{Key: key}
		}
		return fmt.Errorf("failed to commit roster: %w", err)
	}
	return nil
}

// Load returns every locked week. Any undecodable row fails the whole load
// with ErrHistoryCorrupt.
func (s *Store) Load(ctx context.Context) (schedule.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT week_key, roster_json FROM weekly_rosters ORDER BY week_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters: %w", err)
	}
	defer rows.Close()

	history := make(schedule.History)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan roster: %w", err)
		}
		roster, err := schedule.DecodeRoster([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("week %s: %w", key, err)
		}
		history[schedule.WeekKey(key)] = roster
	}

	return history, rows.Err()
}

// Exists checks if a week is locked.
func (s *Store) Exists(ctx context.Context, key schedule.WeekKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weekly_rosters WHERE week_key = ?",
		string(key),
	).Scan(&count)

	return count > 0, err
}

// =============================================================================
// AUDIT LOG (schedule.AuditLog interface)
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry schedule.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO roster_audit (id, week_key, action, payload_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Week),
		string(entry.Action),
		string(payload),
		entry.Timestamp.UTC().Format(auditTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// QueryAudit returns entries for week in time order. An empty week returns
// everything.
func (s *Store) QueryAudit(ctx context.Context, week schedule.WeekKey) ([]schedule.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, week_key, action, payload_json, created_at FROM roster_audit`
	var args []any
	if week != "" {
		query += ` WHERE week_key = ?`
		args = append(args, string(week))
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit: %w", err)
	}
	defer rows.Close()

	var entries []schedule.AuditEntry
	for rows.Next() {
		var (
			e         schedule.AuditEntry
			weekKey   string
			action    string
			payload   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &weekKey, &action, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Week = schedule.WeekKey(weekKey)
		e.Action = schedule.AuditAction(action)
		e.Timestamp, _ = time.Parse(auditTimeLayout, createdAt)
		if payload.Valid && payload.String != "" {
			_ = json.Unmarshal([]byte(payload.String), &e.Payload)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Helper functions

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
