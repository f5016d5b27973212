/*
Package ingest keeps the current availability registrations for a roster
session.

PURPOSE:
  Owns the only suspending operation in the system: fetching the sheet
  export. A Session fetches, parses and normalizes the text, extends the
  employee directory with newly seen names, and swaps in the result.

FAILURE SEMANTICS:
  State is replaced only after a fetch and parse succeed. A failed or
  cancelled refresh leaves the previous registrations in place and
  records the error for display. Errors from Refresh satisfy
  schedule.IsRetryable.

CONCURRENCY:
  Concurrent Refresh calls share one in-flight fetch, which outlives the
  cancellation of the caller that started it. Refreshes are paced
  by a token-bucket limiter so a scheduler and a user clicking "refresh"
  cannot hammer the sheet host.

SEE ALSO:
  - fetcher.go: HTTP transport
  - availability/normalize.go: Row interpretation
*/
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/warp/shift-roster/availability"
	"github.com/warp/shift-roster/schedule"
	"github.com/warp/shift-roster/telemetry"
)

// defaultFlightTimeout bounds a shared refresh once no caller owns it.
const defaultFlightTimeout = 2 * time.Minute

// Snapshot is a consistent view of a session.
type Snapshot struct {
	Registrations schedule.Registrations
	Employees     []schedule.Employee
	Layout        availability.Layout
	Source        string
	LastUpdated   time.Time // zero until the first successful load
	LastError     string
}

// Session holds the registrations currently in effect.
type Session struct {
	fetcher   Fetcher
	directory *schedule.Directory
	limiter   *rate.Limiter
	group     singleflight.Group
	log       zerolog.Logger
	now       func() time.Time

	flightTimeout time.Duration

	mu          sync.RWMutex
	regs        schedule.Registrations
	layout      availability.Layout
	source      string
	lastUpdated time.Time
	lastErr     error
}

type Option func(*Session)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithRateLimit allows perMinute refreshes per minute. Zero or less
// disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(s *Session) {
		if perMinute <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1)
	}
}

// WithFlightTimeout bounds one shared refresh, including the limiter wait.
func WithFlightTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.flightTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(fetcher Fetcher, directory *schedule.Directory, opts ...Option) *Session {
	s := &Session{
		fetcher:   fetcher,
		directory: directory,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		log:       zerolog.Nop(),
		now:       time.Now,
		regs:      schedule.Registrations{},
		layout:    availability.DetectLayout(nil),

		flightTimeout: defaultFlightTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the sheet and replaces the registrations. Callers that
// arrive while a fetch is in flight wait for it instead of starting
// another. The shared fetch is detached from any single caller: a caller
// whose ctx ends stops waiting and gets ctx.Err(), while the fetch runs on
// for the others, bounded by the flight timeout. An already-cancelled ctx
// starts nothing.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return s.Snapshot(), err
	}

	ch := s.group.DoChan("refresh", func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flightTimeout)
		defer cancel()
		return nil, s.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	case res := <-ch:
		return s.Snapshot(), res.Err
	}
}

func (s *Session) refresh(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	text, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.fail(err)
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.apply(text, "sheet")
	return nil
}

// LoadText replaces the registrations from already-fetched text, such as
// an uploaded file. It never fails.
func (s *Session) LoadText(text, source string) Snapshot {
	s.apply(text, source)
	return s.Snapshot()
}

func (s *Session) apply(text, source string) {
	res := availability.NormalizeText(text)
	if res.Layout.NameCol < 0 && res.Rows > 0 {
		s.log.Warn().Str("source", source).Msg("sheet has no name column, no registrations loaded")
	}

	added := s.directory.Extend(res.Names)
	regs := canonicalize(res.Registrations, s.directory)

	s.mu.Lock()
	s.regs = regs
	s.layout = res.Layout
	s.source = source
	s.lastUpdated = s.now()
	s.lastErr = nil
	s.mu.Unlock()

	telemetry.IngestionsTotal.WithLabelValues("ok").Inc()
	telemetry.RegisteredEmployees.Set(float64(len(regs)))

	s.log.Info().
		Str("source", source).
		Str("layout", string(res.Layout.Mode)).
		Int("rows", res.Rows).
		Int("registrations", len(regs)).
		Int("new_employees", len(added)).
		Msg("registrations loaded")
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	telemetry.IngestionsTotal.WithLabelValues("error").Inc()

	var ie *schedule.IngestionError
	if errors.As(err, &ie) {
		s.log.Error().Err(ie.Err).Str("source", ie.Source).Int("status", ie.StatusCode).Msg("sheet fetch failed")
		return
	}
	s.log.Error().Err(err).Msg("sheet fetch failed")
}

// Snapshot returns copies of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Registrations: s.regs.Clone(),
		Employees:     s.directory.Employees(),
		Layout:        s.layout,
		Source:        s.source,
		LastUpdated:   s.lastUpdated,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

func (s *Session) Directory() *schedule.Directory { return s.directory }

// canonicalize re-keys registrations by the directory's spelling of each
// name, so the engine and the directory agree on identity.
func canonicalize(regs schedule.Registrations, dir *schedule.Directory) schedule.Registrations {
	out := make(schedule.Registrations, len(regs))
	for name, reg := range regs {
		key := name
		if e, ok := dir.Lookup(name); ok {
			key = e.Name
		}
		merged := out[key]
		merged.Merge(reg)
		out[key] = merged
	}
	return out
}
