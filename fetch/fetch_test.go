package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("hello"))
		case "/exact":
			w.Write([]byte(strings.Repeat("x", 10)))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 11)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Second, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp, err := fetcher.Get(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("hello"), resp.Body)

	resp, err = fetcher.Get(context.Background(), srv.URL+"/exact")
	require.NoError(t, err)
	assert.Len(t, resp.Body, 10)

	_, err = fetcher.Get(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	resp, err = fetcher.Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPFetcherCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Second, DefaultMaxBodyBytes, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fetcher.Get(ctx, srv.URL)
	assert.Error(t, err)

	_, err = fetcher.Get(context.Background(), "://bad-url")
	assert.Error(t, err)
}
