package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// Result carries the outcome of a completed fetch. A non-2xx StatusCode is
// a valid result, not an error; errors are reserved for transport failures
// where no response was obtained at all.
type Result struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the fetch completed with HTTP 200. Only an exact 200
// counts as success for image retrieval; redirects and partial responses
// are treated as unavailable.
func (r Result) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Fetcher retrieves a candidate image from a source location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (Result, error)
}

// RawContentURL builds the raw-content URL for a file in a hosted git
// repository, the default update source location.
func RawContentURL(repo, branch, path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s", repo, branch, path)
}

// HTTPFetcher fetches over plain HTTP(S) with a bounded request timeout.
type HTTPFetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. A timeout of zero or less leaves
// the client unbounded.
func NewHTTPFetcher(timeout time.Duration, logger zerolog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			// A 3xx is reported as the fetch outcome, never followed to
			// its target.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Fetch performs a GET against location and returns the status and full body.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to build request for %s: %v", models.ErrNetwork, location, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to fetch %s: %v", models.ErrNetwork, location, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to read response body from %s: %v", models.ErrNetwork, location, err)
	}

	f.logger.Debug().Str("url", location).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("Fetched remote content")

	return Result{StatusCode: resp.StatusCode, Body: body}, nil
}
