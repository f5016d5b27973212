/*
errors.go - Centralized error types for the roster engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch on these with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Ingestion errors - Fetching availability text failed (retryable)
  2. Policy violations - Regenerating or re-locking a locked week
  3. Contract errors - Incomplete or over-capacity rosters, bad slots
  4. Store errors - History could not be read or decoded

PROPAGATION:
  Row-level parse problems never become errors; they are dropped where
  they occur. Only ingestion failures reach the end user as a blocking,
  retryable condition. A locked week is reported separately so the UI can
  say "already locked" instead of "try again".

SEE ALSO:
  - planner.go: Returns WeekLockedError and ErrNoRoster
  - ingest/session.go: Returns IngestionError
  - api/handlers.go: Maps these to HTTP status codes
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIngestionFailed is returned when availability text could not be
	// fetched. Previous registrations stay in effect.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrWeekLocked is returned when a week already present in History is
	// regenerated or committed again.
	ErrWeekLocked = errors.New("week is locked")

	// ErrNoRoster is returned when locking a week that has no generated roster.
	ErrNoRoster = errors.New("no roster generated")

	// ErrIncompleteRoster is returned when a roster is missing any of its 21 cells.
	ErrIncompleteRoster = errors.New("incomplete roster")

	// ErrCapacityExceeded is returned when a cell holds more than ShiftCapacity names.
	ErrCapacityExceeded = errors.New("shift capacity exceeded")

	// ErrHistoryCorrupt is returned by stores when persisted rosters cannot be decoded.
	ErrHistoryCorrupt = errors.New("history data corrupt")

	// ErrInvalidSlot is returned when a slot string cannot be parsed.
	ErrInvalidSlot = errors.New("invalid slot")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IngestionError describes a failed availability fetch.
type IngestionError struct {
	Source     string
	StatusCode int // 0 for transport errors
	Err        error
}

func (e *IngestionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ingestion failed: %s returned status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("ingestion failed: %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIngestionFailed}
	}
	return []error{ErrIngestionFailed, e.Err}
}

// WeekLockedError names the week that refused regeneration.
type WeekLockedError struct {
	Key WeekKey
}

func (e *WeekLockedError) Error() string {
	return fmt.Sprintf("week %s is locked", e.Key)
}

func (e *WeekLockedError) Unwrap() error {
	return ErrWeekLocked
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIngestionFailed)
}

// IsPolicyViolation returns true for refused operations on locked weeks.
func IsPolicyViolation(err error) bool {
	return errors.Is(err, ErrWeekLocked)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoRoster) ||
		errors.Is(err, ErrIncompleteRoster) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInvalidSlot)
}
