/*
handlers.go - HTTP API handlers for the shift roster service

PURPOSE:
  Exposes registrations, roster generation and history via REST API.
  Handles HTTP request/response and JSON serialization, and delegates to
  ingest.Session and schedule.Planner.

ENDPOINTS:
  Directory:
    GET    /api/employees                 Employee universe (defaults + discovered)

  Registrations:
    GET    /api/registrations             Summary, last update, last error
    POST   /api/registrations/refresh     Re-fetch the sheet
    POST   /api/registrations/import      Load a CSV export from the request body

  Roster:
    GET    /api/week                      Target week, dates and lock state
    GET    /api/roster                    Draft or locked roster for the target week
    POST   /api/roster/generate           Build a new draft
    POST   /api/roster/lock               Commit the draft to history
    GET    /api/roster/load               Cumulative shift load per employee
    GET    /api/history                   Every locked week

  Scenarios:
    GET    /api/scenarios                 List demo sheets
    GET    /api/scenarios/current         Currently loaded demo sheet
    POST   /api/scenarios/load            Load a demo sheet

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Session: Current registrations and the employee directory
  - Planner: Draft, lock and history for the target week

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, lock without a draft
  - 404: No roster generated yet
  - 409: Week already locked
  - 502: Sheet fetch failed (previous registrations kept)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The service is meant to run behind the cafe's
  internal network.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo sheets
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/schedule"
	"github.com/warp/shift-roster/telemetry"
)

// maxImportBytes bounds uploaded sheet exports.
const maxImportBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Session *ingest.Session
	Planner *schedule.Planner

	log zerolog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(session *ingest.Session, planner *schedule.Planner, log zerolog.Logger) *Handler {
	return &Handler{
		Session: session,
		Planner: planner,
		log:     log,
	}
}

// =============================================================================
// DIRECTORY ENDPOINTS
// =============================================================================

// ListEmployees returns the employee universe in directory order.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEmployeeDTOs(h.Session.Directory().Employees()))
}

// =============================================================================
// REGISTRATION ENDPOINTS
// =============================================================================

// GetRegistrations returns the registration overview.
// GET /api/registrations
func (h *Handler) GetRegistrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRegistrationsDTO(h.Session.Snapshot()))
}

// RefreshRegistrations re-fetches the sheet. On failure the previous
// registrations stay in effect and the error is returned as 502.
// POST /api/registrations/refresh
func (h *Handler) RefreshRegistrations(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Refresh(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to refresh registrations", err)
		return
	}

	h.setScenario("")
	writeJSON(w, http.StatusOK, toRegistrationsDTO(snap))
}

// ImportRegistrations loads a CSV export sent as the request body.
// POST /api/registrations/import
func (h *Handler) ImportRegistrations(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap := h.Session.LoadText(string(body), "import")
	h.setScenario("")
	writeJSON(w, http.StatusOK, toRegistrationsDTO(snap))
}

// =============================================================================
// ROSTER ENDPOINTS
// =============================================================================

// GetWeek returns the target week.
// GET /api/week
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week := h.Planner.Week()

	locked, err := h.Planner.Locked(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to read lock state", err)
		return
	}

	writeJSON(w, http.StatusOK, toWeekDTO(week, locked))
}

// GetRoster returns the locked roster for the target week, or the draft.
// A locked week with unreadable history is served as locked but not
// generated.
// GET /api/roster
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	week := h.Planner.Week()

	cur, err := h.Planner.Current(r.Context())
	if errors.Is(err, schedule.ErrNoRoster) {
		writeErrorCode(w, http.StatusNotFound, "not_generated", "Roster not generated", toRosterDTO(week.Key(), nil, false, &week))
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to get roster", err)
		return
	}

	dto := toRosterDTO(cur.Key, cur.Roster, cur.Locked, &week)
	if !cur.Locked {
		if out, ok := h.Planner.LastOutcome(); ok {
			dto.Underfilled = slotStrings(out.Underfilled)
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// GenerateRoster builds a new draft from the current registrations.
// POST /api/roster/generate
func (h *Handler) GenerateRoster(w http.ResponseWriter, r *http.Request) {
	week := h.Planner.Week()
	snap := h.Session.Snapshot()

	out, err := h.Planner.Generate(r.Context(), snap.Registrations, snap.Employees)
	if err != nil {
		h.writeDomainError(w, "Failed to generate roster", err)
		return
	}

	telemetry.RostersGenerated.Inc()
	telemetry.UnderfilledCells.Set(float64(len(out.Underfilled)))

	dto := toRosterDTO(week.Key(), out.Roster, false, &week)
	dto.Underfilled = slotStrings(out.Underfilled)
	writeJSON(w, http.StatusOK, dto)
}

// LockRoster commits the draft for the target week.
// POST /api/roster/lock
func (h *Handler) LockRoster(w http.ResponseWriter, r *http.Request) {
	week := h.Planner.Week()

	cur, err := h.Planner.Lock(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to lock roster", err)
		return
	}

	telemetry.RostersLocked.Inc()
	writeJSON(w, http.StatusOK, toRosterDTO(cur.Key, cur.Roster, true, &week))
}

// GetLoad returns cumulative shift load, highest first.
// GET /api/roster/load
func (h *Handler) GetLoad(w http.ResponseWriter, r *http.Request) {
	employees := h.Session.Directory().Employees()
	writeJSON(w, http.StatusOK, toLoadDTOs(h.Planner.Load(r.Context(), employees)))
}

// GetHistory returns every locked week. A store failure yields an empty list.
// GET /api/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history := h.Planner.History(r.Context())

	dto := HistoryDTO{Weeks: make([]RosterDTO, 0, len(history))}
	for _, key := range history.Keys() {
		dto.Weeks = append(dto.Weeks, toRosterDTO(key, history[key], true, nil))
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// writeDomainError maps schedule errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case schedule.IsPolicyViolation(err):
		writeErrorCode(w, http.StatusConflict, "week_locked", message, err.Error())
	case schedule.IsRetryable(err):
		writeErrorCode(w, http.StatusBadGateway, "ingestion_failed", message, err.Error())
	case schedule.IsClientError(err):
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", message, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorCode(w, http.StatusServiceUnavailable, "cancelled", message, err.Error())
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func slotStrings(slots []schedule.Slot) []string {
	if len(slots) == 0 {
		return nil
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}
