/*
scenarios.go - Demo sheets for testing and demonstrations

PURPOSE:

	Provides pre-built availability exports that stand in for the live
	sheet. Loading a scenario replaces the current registrations exactly
	as a refresh would; history and any locked weeks are untouched.

AVAILABLE SCENARIOS:

	full-crew:     Per-day layout, every default employee registered,
	               one employee submits twice
	short-staffed: Per-day layout, three registrants, under-filled cells
	               and low registrations
	shift-list:    Single "day + shift" list column in English, with a
	               new hire missing from the default directory

HOW SCENARIOS WORK:
 1. Read the embedded CSV from samples/
 2. Session.LoadText normalizes it and extends the directory
 3. Generate a roster as usual

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "short-staffed"}

ADDING NEW SCENARIOS:
 1. Drop a CSV into samples/
 2. Add it to 'scenarios' with the file name as ID

SEE ALSO:
  - ingest/session.go: LoadText
  - availability/normalize.go: Layout detection
*/
package api

import (
	"embed"
	"encoding/json"
	"net/http"

	"github.com/warp/shift-roster/availability"
)

//go:embed samples/*.csv
var samples embed.FS

var scenarios = []ScenarioDTO{
	{
		ID:          "full-crew",
		Name:        "Full Crew",
		Description: "All eight staff registered in the per-day form, with one follow-up submission merged in.",
		Layout:      string(availability.ModePerDay),
	},
	{
		ID:          "short-staffed",
		Name:        "Short Staffed",
		Description: "Exam week: three registrants, several empty shifts and two low registrations.",
		Layout:      string(availability.ModePerDay),
	},
	{
		ID:          "shift-list",
		Name:        "Shift List",
		Description: "English list-column export with a new hire who is not yet in the directory.",
		Layout:      string(availability.ModeList),
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the registrations with a demo sheet.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	text, ok := scenarioText(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	snap := h.Session.LoadText(text, "scenario:"+req.ScenarioID)
	h.setScenario(req.ScenarioID)

	writeJSON(w, http.StatusOK, toRegistrationsDTO(snap))
}

// scenarioText returns the CSV for a known scenario ID.
func scenarioText(id string) (string, bool) {
	known := false
	for _, s := range scenarios {
		if s.ID == id {
			known = true
			break
		}
	}
	if !known {
		return "", false
	}

	data, err := samples.ReadFile("samples/" + id + ".csv")
	if err != nil {
		return "", false
	}
	return string(data), true
}
