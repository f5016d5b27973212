/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the schedule package's maps and decimals from the external contract:
  rosters become ordered day/shift lists, hours become strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Directory:     EmployeeDTO
  Registrations: RegistrationsDTO, RegistrationSummaryDTO
  Week:          WeekDTO, WeekDayDTO
  Roster:        RosterDTO, RosterDayDTO, ShiftCellDTO
  Load:          LoadEntryDTO
  History:       HistoryDTO
  Scenarios:     ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/types.go: Domain types
*/
package api

import (
	"strings"
	"time"

	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/schedule"
)

// dateLayout is used for absolute dates; day labels use "DD/MM".
const dateLayout = "2006-01-02"

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	New  bool   `json:"new"`
}

// RegistrationSummaryDTO is one row of the registration overview.
type RegistrationSummaryDTO struct {
	EmployeeID      string   `json:"employee_id"`
	Name            string   `json:"name"`
	Status          string   `json:"status"`
	Days            int      `json:"days"`
	Slots           []string `json:"slots"`
	LowRegistration bool     `json:"low_registration"`
	Reason          string   `json:"reason"`
}

// RegistrationsDTO is the registration overview plus ingestion status.
type RegistrationsDTO struct {
	Entries     []RegistrationSummaryDTO `json:"entries"`
	Total       int                      `json:"total"`
	Registered  int                      `json:"registered"`
	Missing     int                      `json:"missing"`
	Layout      string                   `json:"layout"`
	Source      string                   `json:"source,omitempty"`
	LastUpdated string                   `json:"last_updated,omitempty"`
	LastError   string                   `json:"last_error,omitempty"`
}

// WeekDayDTO is one day of the target week.
type WeekDayDTO struct {
	Day     string `json:"day"`
	Date    string `json:"date"`
	Weekend bool   `json:"weekend"`
}

// WeekDTO describes the target week.
type WeekDTO struct {
	Key    string       `json:"key"`
	Start  string       `json:"start"`
	End    string       `json:"end"`
	Days   []WeekDayDTO `json:"days"`
	Locked bool         `json:"locked"`
}

// ShiftCellDTO is one (day, shift) cell. Names is never null; an empty
// list means generated but unfilled.
type ShiftCellDTO struct {
	Shift int      `json:"shift"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Names []string `json:"names"`
}

// RosterDayDTO groups a day's three shifts.
type RosterDayDTO struct {
	Day     string         `json:"day"`
	Date    string         `json:"date,omitempty"`
	Weekend bool           `json:"weekend"`
	Shifts  []ShiftCellDTO `json:"shifts"`
}

// RosterDTO is a full weekly roster.
type RosterDTO struct {
	Week        string         `json:"week"`
	Generated   bool           `json:"generated"`
	Locked      bool           `json:"locked"`
	Days        []RosterDayDTO `json:"days,omitempty"`
	Underfilled []string       `json:"underfilled,omitempty"`
}

// LoadEntryDTO is one employee's cumulative load. Hours are decimal strings.
type LoadEntryDTO struct {
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentHours string `json:"current_hours"`
	Hours        string `json:"hours"`
}

// HistoryDTO lists locked weeks in key order.
type HistoryDTO struct {
	Weeks []RosterDTO `json:"weeks"`
}

// ScenarioDTO represents a demo sheet.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Layout      string `json:"layout"`
}

// LoadScenarioRequest selects a scenario by ID.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the error envelope for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTOs(employees []schedule.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, EmployeeDTO{
			ID:   string(e.ID),
			Name: e.Name,
			New:  strings.HasPrefix(string(e.ID), schedule.NewEmployeeIDPrefix),
		})
	}
	return dtos
}

func toRegistrationsDTO(snap ingest.Snapshot) RegistrationsDTO {
	report := schedule.SummarizeRegistrations(snap.Employees, snap.Registrations)

	dto := RegistrationsDTO{
		Entries:    make([]RegistrationSummaryDTO, 0, len(report.Entries)),
		Total:      report.Total,
		Registered: report.Registered,
		Missing:    report.Missing,
		Layout:     string(snap.Layout.Mode),
		Source:     snap.Source,
		LastError:  snap.LastError,
	}
	if !snap.LastUpdated.IsZero() {
		dto.LastUpdated = snap.LastUpdated.Format(time.RFC3339)
	}

	for _, e := range report.Entries {
		slots := make([]string, 0, len(e.Slots))
		for _, s := range e.Slots {
			slots = append(slots, s.String())
		}
		dto.Entries = append(dto.Entries, RegistrationSummaryDTO{
			EmployeeID:      string(e.Employee.ID),
			Name:            e.Employee.Name,
			Status:          string(e.Status),
			Days:            e.Days,
			Slots:           slots,
			LowRegistration: e.LowRegistration,
			Reason:          e.Reason,
		})
	}
	return dto
}

func toWeekDTO(week schedule.Week, locked bool) WeekDTO {
	dto := WeekDTO{
		Key:    string(week.Key()),
		Start:  week.Monday.Format(dateLayout),
		End:    week.Sunday().Format(dateLayout),
		Days:   make([]WeekDayDTO, 0, len(schedule.Days)),
		Locked: locked,
	}
	for _, d := range schedule.Days {
		dto.Days = append(dto.Days, WeekDayDTO{
			Day:     string(d),
			Date:    week.Label(d),
			Weekend: d.IsWeekend(),
		})
	}
	return dto
}

// toRosterDTO converts a roster. week may be nil when only the key is
// known, as for history entries; day dates are then omitted.
func toRosterDTO(key schedule.WeekKey, roster schedule.Roster, locked bool, week *schedule.Week) RosterDTO {
	dto := RosterDTO{Week: string(key), Locked: locked}
	if roster == nil {
		return dto
	}
	dto.Generated = true

	for _, d := range schedule.Days {
		day := RosterDayDTO{
			Day:     string(d),
			Weekend: d.IsWeekend(),
			Shifts:  make([]ShiftCellDTO, 0, len(schedule.Shifts)),
		}
		if week != nil {
			day.Date = week.Label(d)
		}
		for _, s := range schedule.Shifts {
			win := s.Window()
			names := append([]string{}, roster.Cell(d, s)...)
			day.Shifts = append(day.Shifts, ShiftCellDTO{
				Shift: int(s),
				Start: win.Start,
				End:   win.End,
				Names: names,
			})
		}
		dto.Days = append(dto.Days, day)
	}
	return dto
}

func toLoadDTOs(entries []schedule.LoadEntry) []LoadEntryDTO {
	dtos := make([]LoadEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LoadEntryDTO{
			EmployeeID:   string(e.EmployeeID),
			Name:         e.Name,
			Current:      e.Current,
			Total:        e.Total,
			CurrentHours: e.CurrentHours.String(),
			Hours:        e.Hours.String(),
		})
	}
	return dtos
}
