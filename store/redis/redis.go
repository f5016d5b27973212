// Package redis provides a Redis-backed HistoryStore for deployments that
// run several roster instances against shared history.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/warp/shift-roster/schedule"
)

// DefaultKey is the hash holding locked rosters. Audit entries live in a
// list at DefaultKey + ":audit".
const DefaultKey = "shift-roster:history"

// Config contains connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Store keeps History in a single Redis hash: field = week key, value =
// roster JSON. HSETNX makes Commit an atomic insert-if-absent.
type Store struct {
	client *goredis.Client
	key    string
	logger zerolog.Logger
}

// New connects and pings. Unlike a cache, history must not silently
// disappear, so an unreachable server is an error.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("Redis history store initialized")
	return NewFromClient(client, cfg.Key, logger), nil
}

// NewFromClient wraps an existing client. An empty key uses DefaultKey.
func NewFromClient(client *goredis.Client, key string, logger zerolog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "history_redis").Logger(),
	}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) auditKey() string { return s.key + ":audit" }

// Commit locks a week. Append-only.
func (s *Store) Commit(ctx context.Context, key schedule.WeekKey, roster schedule.Roster) error {
	data, err := schedule.EncodeRoster(roster)
	if err != nil {
		return err
	}

	ok, err := s.client.HSetNX(ctx, s.key, string(key), data).Result()
	if err != nil {
		return fmt.Errorf("failed to commit roster: %w", err)
	}
	if !ok {
		return &schedule.WeekLockedError{Key: key}
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (schedule.History, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := make(schedule.History, len(fields))
	for key, data := range fields {
		roster, err := schedule.DecodeRoster([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("week %s: %w", key, err)
		}
		history[schedule.WeekKey(key)] = roster
	}
	return history, nil
}

func (s *Store) Exists(ctx context.Context, key schedule.WeekKey) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, string(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check week %s: %w", key, err)
	}
	return ok, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

type auditRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Week      string         `json:"week"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (s *Store) AppendAudit(ctx context.Context, entry schedule.AuditEntry) error {
	data, err := json.Marshal(auditRecord{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Action:    string(entry.Action),
		Week:      string(entry.Week),
		Payload:   entry.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.auditKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) QueryAudit(ctx context.Context, week schedule.WeekKey) ([]schedule.AuditEntry, error) {
	items, err := s.client.LRange(ctx, s.auditKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query audit: %w", err)
	}

	var entries []schedule.AuditEntry
	for _, item := range items {
		var rec auditRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn().Err(err).Msg("skipping undecodable audit entry")
			continue
		}
		if week != "" && rec.Week != string(week) {
			continue
		}
		entries = append(entries, schedule.AuditEntry{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Action:    schedule.AuditAction(rec.Action),
			Week:      schedule.WeekKey(rec.Week),
			Payload:   rec.Payload,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}
