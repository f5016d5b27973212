package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warp/shift-roster/schedule"
)

// Fetcher returns the raw export text of the availability sheet.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// maxSheetBytes bounds how much of a response body is read.
const maxSheetBytes = 8 << 20

// HTTPFetcher downloads a published sheet export over HTTP.
type HTTPFetcher struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	now     func() time.Time
}

func NewHTTPFetcher(sheetURL string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		URL:     sheetURL,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
		now:     time.Now,
	}
}

// Fetch performs one GET with a t=<unix-ms> cache-buster. Transport
// errors and non-2xx responses are returned as *schedule.IngestionError.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	target, err := f.bustedURL()
	if err != nil {
		return "", &schedule.IngestionError{Source: f.URL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &schedule.IngestionError{Source: f.URL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", "shift-roster/1.0")
	req.Header.Set("Cache-Control", "no-cache")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &schedule.IngestionError{Source: f.URL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &schedule.IngestionError{
			Source:     f.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBytes))
	if err != nil {
		return "", &schedule.IngestionError{Source: f.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(body), nil
}

func (f *HTTPFetcher) bustedURL() (string, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return "", fmt.Errorf("parse sheet url: %w", err)
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StaticFetcher serves fixed text. Used for file imports and tests.
type StaticFetcher struct {
	Text string
	Err  error
}

func (s StaticFetcher) Fetch(context.Context) (string, error) {
	return s.Text, s.Err
}
