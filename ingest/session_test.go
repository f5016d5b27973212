package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-roster/ingest"
	"github.com/warp/shift-roster/schedule"
)

const sheetCSV = "Tên,Thứ 2,Thứ 3,Lý do\n" +
	"bùi đức huy,Ca 1,Ca 2,\n" +
	"Lan,Ca 3,,exams\n"

func newDirectory() *schedule.Directory {
	return schedule.NewDirectory(schedule.DefaultEmployees())
}

func TestHTTPFetcher_AddsCacheBuster(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	f := ingest.NewHTTPFetcher(srv.URL+"/export?format=csv", time.Second)
	text, err := f.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, sheetCSV, text)
	assert.Contains(t, gotQuery, "format=csv")
	assert.Regexp(t, `(^|&)t=\d{13}($|&)`, gotQuery)
}

func TestHTTPFetcher_Non2xxIsIngestionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := ingest.NewHTTPFetcher(srv.URL, time.Second).Fetch(context.Background())

	var ie *schedule.IngestionError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, http.StatusServiceUnavailable, ie.StatusCode)
	assert.True(t, schedule.IsRetryable(err))
}

func TestSession_RefreshCanonicalizesAndExtends(t *testing.T) {
	// GIVEN: A sheet with a lower-cased default name and a new name
	// WHEN: Refreshing
	// THEN: The default keeps its directory spelling and the new name is appended

	dir := newDirectory()
	s := ingest.NewSession(ingest.StaticFetcher{Text: sheetCSV}, dir)

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)

	require.Contains(t, snap.Registrations, "Bùi Đức Huy")
	assert.Equal(t, 2, snap.Registrations["Bùi Đức Huy"].Slots.Len())
	assert.Equal(t, "exams", snap.Registrations["Lan"].Reason)

	require.Len(t, snap.Employees, 9)
	assert.Equal(t, schedule.Employee{ID: "NEW_Lan", Name: "Lan"}, snap.Employees[8])
	assert.False(t, snap.LastUpdated.IsZero())
	assert.Empty(t, snap.LastError)
}

func TestSession_FailedRefreshKeepsPreviousState(t *testing.T) {
	// GIVEN: A session with loaded registrations
	// WHEN: A refresh fails
	// THEN: The previous registrations stay and the error is recorded

	fetcher := &switchFetcher{text: sheetCSV}
	s := ingest.NewSession(fetcher, newDirectory())
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.set("", &schedule.IngestionError{Source: "sheet", StatusCode: 500})
	snap, err := s.Refresh(context.Background())

	assert.ErrorIs(t, err, schedule.ErrIngestionFailed)
	assert.Len(t, snap.Registrations, 2)
	assert.Contains(t, snap.LastError, "500")
}

func TestSession_ConcurrentRefreshesShareOneFetch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	s := ingest.NewSession(ingest.NewHTTPFetcher(srv.URL, 5*time.Second), newDirectory())

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Refresh(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestSession_CancelledRefreshChangesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := ingest.NewSession(ingest.StaticFetcher{Text: sheetCSV}, newDirectory())
	snap, err := s.Refresh(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, snap.Registrations)
	assert.True(t, snap.LastUpdated.IsZero())
}

func TestSession_LoadTextWithoutNameColumn(t *testing.T) {
	s := ingest.NewSession(ingest.StaticFetcher{}, newDirectory())
	snap := s.LoadText("Foo,Thứ 2\nbar,Ca 1\n", "upload")

	assert.Empty(t, snap.Registrations)
	assert.Equal(t, "upload", snap.Source)
	assert.Len(t, snap.Employees, 8)
}

type switchFetcher struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *switchFetcher) set(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.err = text, err
}

func (f *switchFetcher) Fetch(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

// gatedFetcher blocks every Fetch until release is closed, honoring ctx.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (f *gatedFetcher) Fetch(ctx context.Context) (string, error) {
	f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-f.release:
		return sheetCSV, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSession_CancelledCallerDoesNotAbortSharedRefresh(t *testing.T) {
	// GIVEN: A refresh in flight, started by a caller that will give up
	fetcher := newGatedFetcher()
	s := ingest.NewSession(fetcher, newDirectory())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx)
		firstErr <- err
	}()
	<-fetcher.started

	// AND: A second caller joining the same flight
	secondErr := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	// WHEN: The first caller cancels, then the sheet answers
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(fetcher.release)

	// THEN: The second caller gets the fresh registrations
	require.NoError(t, <-secondErr)
	snap := s.Snapshot()
	assert.Len(t, snap.Registrations, 2)
	assert.Equal(t, "sheet", snap.Source)
	assert.Empty(t, snap.LastError)
}

func TestSession_FlightTimeoutKeepsPreviousState(t *testing.T) {
	// GIVEN: Imported registrations and a sheet that never answers
	fetcher := newGatedFetcher()
	s := ingest.NewSession(fetcher, newDirectory(), ingest.WithFlightTimeout(30*time.Millisecond))
	s.LoadText(sheetCSV, "import")

	// WHEN: Refreshing
	_, err := s.Refresh(context.Background())

	// THEN: The flight times out and the import stays in effect
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	snap := s.Snapshot()
	assert.Len(t, snap.Registrations, 2)
	assert.Equal(t, "import", snap.Source)
}
