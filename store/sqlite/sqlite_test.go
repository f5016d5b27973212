package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-roster/schedule"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRoster() schedule.Roster {
	r := schedule.NewRoster()
	r[schedule.Monday][schedule.Shift1] = []string{"Bùi Đức Huy", "Tạ Lê Uyên"}
	r[schedule.Sunday][schedule.Shift3] = []string{"Lan"}
	return r
}

func TestStore_CommitAndLoad(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Commit(ctx, "20/10 - 26/10", sampleRoster()))

	exists, err := store.Exists(ctx, "20/10 - 26/10")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "27/10 - 02/11")
	require.NoError(t, err)
	assert.False(t, exists)

	history, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleRoster(), history["20/10 - 26/10"]); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CommitNeverOverwrites(t *testing.T) {
	// GIVEN: A locked week
	// WHEN: Committing a different roster under the same key
	// THEN: WeekLockedError, and the original roster is kept

	ctx := context.Background()
	store := setupStore(t)
	require.NoError(t, store.Commit(ctx, "20/10 - 26/10", sampleRoster()))

	err := store.Commit(ctx, "20/10 - 26/10", schedule.NewRoster())

	var locked *schedule.WeekLockedError
	require.True(t, errors.As(err, &locked))
	history, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lan"}, history["20/10 - 26/10"].Cell(schedule.Sunday, schedule.Shift3))
}

func TestStore_CommitRejectsIncompleteRoster(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	r := sampleRoster()
	delete(r, schedule.Wednesday)

	assert.ErrorIs(t, store.Commit(ctx, "20/10 - 26/10", r), schedule.ErrIncompleteRoster)
	exists, err := store.Exists(ctx, "20/10 - 26/10")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_CorruptRowFailsLoad(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO weekly_rosters (week_key, roster_json, locked_at) VALUES (?, ?, ?)`,
		"13/10 - 19/10", "{not json", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, schedule.ErrHistoryCorrupt)

	h := schedule.LoadHistory(ctx, store, zerolog.Nop())
	assert.Empty(t, h)
}

func TestStore_Audit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	at := time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)

	first := schedule.NewAuditEntry(schedule.AuditRosterGenerated, "20/10 - 26/10", at, map[string]any{"underfilled": 3})
	second := schedule.NewAuditEntry(schedule.AuditRosterLocked, "20/10 - 26/10", at.Add(time.Minute), nil)
	other := schedule.NewAuditEntry(schedule.AuditRosterLocked, "27/10 - 02/11", at, nil)
	for _, e := range []schedule.AuditEntry{second, first, other} {
		require.NoError(t, store.AppendAudit(ctx, e))
	}

	entries, err := store.QueryAudit(ctx, "20/10 - 26/10")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, schedule.AuditRosterGenerated, entries[0].Action)
	assert.Equal(t, float64(3), entries[0].Payload["underfilled"])
	assert.True(t, entries[0].Timestamp.Equal(at))
	assert.Equal(t, second.ID, entries[1].ID)

	all, err := store.QueryAudit(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
