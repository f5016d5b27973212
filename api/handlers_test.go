/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Registration refresh, import and failure handling
- Roster generate/lock lifecycle and its status codes
- Load, history and week endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/schedule"
	"github.com/warp/shift-roster/schedule/store"
	"github.com/warp/shift-roster/store/sqlite"
)

// Wednesday 15 Oct 2025; the target week is 20/10 - 26/10.
var testNow = time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC)

const testSheet = "Tên,Thứ 2,Thứ 3,Lý do\n" +
	"Bùi Đức Huy,\"Ca 1, Ca 2\",Ca 3,\n" +
	"Lan,Ca 1,,exams\n"

func setupTestHandler(t *testing.T) *Handler {
	return setupTestHandlerWith(t, ingest.StaticFetcher{Text: testSheet})
}

func setupTestHandlerWith(t *testing.T, fetcher ingest.Fetcher) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return testNow }
	session := ingest.NewSession(fetcher, schedule.NewDirectory(schedule.DefaultEmployees()), ingest.WithClock(clock))
	planner := schedule.NewPlanner(store, schedule.NewEngine(schedule.OrderedTieBreaker{}), schedule.WithClock(clock))

	return NewHandler(session, planner, zerolog.Nop())
}

func do(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewRouter(h, nil).ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListEmployees(t *testing.T) {
	h := setupTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/employees", "")

	require.Equal(t, http.StatusOK, rec.Code)
	employees := decode[[]EmployeeDTO](t, rec)
	require.Len(t, employees, 8)
	assert.Equal(t, "NV001", employees[0].ID)
	assert.False(t, employees[0].New)
}

func TestRefreshRegistrations_Success(t *testing.T) {
	// GIVEN: A sheet with one known employee and one new name
	h := setupTestHandler(t)

	// WHEN: Refreshing
	rec := do(t, h, http.MethodPost, "/api/registrations/refresh", "")

	// THEN: Both are registered and the new name joins the directory
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[RegistrationsDTO](t, rec)
	assert.Equal(t, 9, dto.Total)
	assert.Equal(t, 2, dto.Registered)
	assert.Equal(t, 7, dto.Missing)
	assert.Equal(t, "per_day", dto.Layout)
	assert.Equal(t, testNow.Format(time.RFC3339), dto.LastUpdated)

	employees := decode[[]EmployeeDTO](t, do(t, h, http.MethodGet, "/api/employees", ""))
	require.Len(t, employees, 9)
	assert.Equal(t, "Lan", employees[8].Name)
	assert.True(t, employees[8].New)
}

func TestRefreshRegistrations_FailureKeepsPreviousState(t *testing.T) {
	// GIVEN: Registrations loaded from an import, and a failing sheet
	h := setupTestHandlerWith(t, ingest.StaticFetcher{
		Err: &schedule.IngestionError{Source: "sheet", StatusCode: http.StatusServiceUnavailable},
	})
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/registrations/import", testSheet).Code)

	// WHEN: Refreshing
	rec := do(t, h, http.MethodPost, "/api/registrations/refresh", "")

	// THEN: 502, and the imported registrations are still served
	require.Equal(t, http.StatusBadGateway, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "ingestion_failed", errResp.Code)

	dto := decode[RegistrationsDTO](t, do(t, h, http.MethodGet, "/api/registrations", ""))
	assert.Equal(t, 2, dto.Registered)
	assert.Equal(t, "import", dto.Source)
	assert.Contains(t, dto.LastError, "503")
}

func TestImportRegistrations_NoNameColumn(t *testing.T) {
	h := setupTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/registrations/import", "foo,bar\n1,2\n")

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[RegistrationsDTO](t, rec)
	assert.Equal(t, 0, dto.Registered)
	assert.Equal(t, 8, dto.Missing)
}

func TestGetRoster_NotGenerated(t *testing.T) {
	h := setupTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/roster", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_generated", decode[ErrorResponse](t, rec).Code)
}

func TestLockRoster_NoDraft(t *testing.T) {
	h := setupTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/roster/lock", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[ErrorResponse](t, rec).Code)
}

func TestRosterLifecycle(t *testing.T) {
	// GIVEN: Imported registrations
	h := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/registrations/import", testSheet).Code)

	// WHEN: Generating
	rec := do(t, h, http.MethodPost, "/api/roster/generate", "")

	// THEN: A full grid for next week, with Huy and Lan on Monday morning
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[RosterDTO](t, rec)
	assert.Equal(t, "20/10 - 26/10", roster.Week)
	assert.True(t, roster.Generated)
	assert.False(t, roster.Locked)
	require.Len(t, roster.Days, 7)
	assert.Equal(t, "20/10", roster.Days[0].Date)
	assert.True(t, roster.Days[5].Weekend)
	assert.Equal(t, []string{"Bùi Đức Huy", "Lan"}, roster.Days[0].Shifts[0].Names)
	assert.Equal(t, "07:00", roster.Days[0].Shifts[0].Start)
	assert.Equal(t, []string{}, roster.Days[6].Shifts[2].Names)
	assert.Contains(t, roster.Underfilled, "Sun-3")

	// AND: The draft is served but not locked
	rec = do(t, h, http.MethodGet, "/api/roster", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[RosterDTO](t, rec).Locked)

	// WHEN: Locking
	rec = do(t, h, http.MethodPost, "/api/roster/lock", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[RosterDTO](t, rec).Locked)

	// THEN: The week refuses regeneration and relocking
	rec = do(t, h, http.MethodPost, "/api/roster/generate", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "week_locked", decode[ErrorResponse](t, rec).Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/roster/lock", "").Code)

	week := decode[WeekDTO](t, do(t, h, http.MethodGet, "/api/week", ""))
	assert.True(t, week.Locked)

	history := decode[HistoryDTO](t, do(t, h, http.MethodGet, "/api/history", ""))
	require.Len(t, history.Weeks, 1)
	assert.Equal(t, "20/10 - 26/10", history.Weeks[0].Week)
	assert.True(t, history.Weeks[0].Locked)

	load := decode[[]LoadEntryDTO](t, do(t, h, http.MethodGet, "/api/roster/load", ""))
	require.Len(t, load, 9)
	assert.Equal(t, "Bùi Đức Huy", load[0].Name)
	assert.Equal(t, 3, load[0].Total)
	assert.Equal(t, "15.5", load[0].Hours)
	assert.Equal(t, "Lan", load[1].Name)
	assert.Equal(t, 1, load[1].Total)
}

func TestGetWeek(t *testing.T) {
	h := setupTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/week", "")

	require.Equal(t, http.StatusOK, rec.Code)
	week := decode[WeekDTO](t, rec)
	assert.Equal(t, "20/10 - 26/10", week.Key)
	assert.Equal(t, "2025-10-20", week.Start)
	assert.Equal(t, "2025-10-26", week.End)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "26/10", week.Days[6].Date)
	assert.False(t, week.Locked)
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/week", "").Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shift_roster_api_requests_total")
}

type unreadableHistory struct{ store.Memory }

func (*unreadableHistory) Exists(context.Context, schedule.WeekKey) (bool, error) {
	return true, nil
}

func (*unreadableHistory) Load(context.Context) (schedule.History, error) {
	return nil, schedule.ErrHistoryCorrupt
}

func TestLockedWeek_UnreadableHistory(t *testing.T) {
	// GIVEN: A locked week whose history cannot be decoded
	clock := func() time.Time { return testNow }
	session := ingest.NewSession(ingest.StaticFetcher{Text: testSheet}, schedule.NewDirectory(schedule.DefaultEmployees()), ingest.WithClock(clock))
	planner := schedule.NewPlanner(&unreadableHistory{}, schedule.NewEngine(schedule.OrderedTieBreaker{}), schedule.WithClock(clock))
	h := NewHandler(session, planner, zerolog.Nop())

	// WHEN: Reading the week and the roster
	weekRec := do(t, h, http.MethodGet, "/api/week", "")
	rosterRec := do(t, h, http.MethodGet, "/api/roster", "")

	// THEN: Both still answer, reporting the week as locked
	require.Equal(t, http.StatusOK, weekRec.Code, weekRec.Body.String())
	assert.True(t, decode[WeekDTO](t, weekRec).Locked)

	require.Equal(t, http.StatusOK, rosterRec.Code, rosterRec.Body.String())
	roster := decode[RosterDTO](t, rosterRec)
	assert.True(t, roster.Locked)
	assert.False(t, roster.Generated)
}
