/*
scheduler.go - Periodic availability refresh

PURPOSE:
  Re-fetches the availability sheet on a cron schedule so the registration
  overview stays current without anyone pressing "refresh".

DESIGN:
  - robfig/cron drives the schedule; jobs never overlap because the
    Session collapses concurrent refreshes into one fetch
  - Each run gets its own timeout
  - A failed run is logged; the Session keeps the previous registrations

CONFIGURATION:
  - Spec: standard 5-field cron or a descriptor ("@every 10m", "@hourly").
    Empty disables the scheduler.
  - Timeout: Per-run deadline (default: 30s)

USAGE:
  scheduler := NewRefreshScheduler(session, "@every 10m", log)
  if err := scheduler.Start(); err != nil {
      return err
  }
  defer scheduler.Stop()

SEE ALSO:
  - handlers.go: RefreshRegistrations endpoint (manual refresh)
  - ingest/session.go: Refresh semantics
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/warp/shift-roster/ingest"
)

// RefreshScheduler handles automated sheet refreshes.
type RefreshScheduler struct {
	Session *ingest.Session
	Spec    string
	Timeout time.Duration

	log    zerolog.Logger
	parser cron.Parser

	mu sync.Mutex
	c  *cron.Cron
}

// NewRefreshScheduler creates a new scheduler. It does nothing until Start.
func NewRefreshScheduler(session *ingest.Session, spec string, log zerolog.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		Session: session,
		Spec:    spec,
		Timeout: 30 * time.Second,
		log:     log,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Enabled reports whether a schedule is configured.
func (rs *RefreshScheduler) Enabled() bool {
	return rs.Spec != ""
}

// Start begins the scheduler. Starting a disabled or already running
// scheduler is a no-op.
func (rs *RefreshScheduler) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled() {
		rs.log.Info().Msg("refresh scheduler disabled")
		return nil
	}
	if rs.c != nil {
		return nil
	}

	c := cron.New(cron.WithParser(rs.parser))
	if _, err := c.AddFunc(rs.Spec, rs.RunNow); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", rs.Spec, err)
	}
	c.Start()
	rs.c = c

	rs.log.Info().Str("schedule", rs.Spec).Msg("refresh scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.c == nil {
		return
	}
	<-rs.c.Stop().Done()
	rs.c = nil
	rs.log.Info().Msg("refresh scheduler stopped")
}

// RunNow refreshes immediately.
func (rs *RefreshScheduler) RunNow() {
	timeout := rs.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snap, err := rs.Session.Refresh(ctx)
	if err != nil {
		rs.log.Warn().Err(err).Msg("scheduled refresh failed")
		return
	}
	rs.log.Debug().Int("registrations", len(snap.Registrations)).Msg("scheduled refresh done")
}

// NextRun returns when the next scheduled refresh will occur, or the zero
// time when the scheduler is not running.
func (rs *RefreshScheduler) NextRun() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.c == nil {
		return time.Time{}
	}
	entries := rs.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
