package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mfarlowe/picow-agent/internal/models"
)

func TestRawContentURL(t *testing.T) {
	url := RawContentURL("mfarlowe/pico-fleet", "main", "main.py")
	assert.Equal(t, "https://raw.githubusercontent.com/mfarlowe/pico-fleet/main/main.py", url)
}

func TestHTTPFetcherReturnsBodyOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("print('hello')\n"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, zerolog.Nop())
	result, err := fetcher.Fetch(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "print('hello')\n", string(result.Body))
}

func TestHTTPFetcherReportsNonOKStatusAsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, zerolog.Nop())
	result, err := fetcher.Fetch(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestHTTPFetcherReportsRedirectStatusWithoutFollowing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusFound)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sign-in page, not the image\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, zerolog.Nop())
	result, err := fetcher.Fetch(context.Background(), server.URL+"/image")

	assert.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, http.StatusFound, result.StatusCode)
	assert.NotContains(t, string(result.Body), "sign-in page")
}

func TestHTTPFetcherWrapsTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	fetcher := NewHTTPFetcher(time.Second, zerolog.Nop())
	_, err := fetcher.Fetch(context.Background(), server.URL)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNetwork))
}
