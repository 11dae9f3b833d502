// Package fetch retrieves external evidence over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/ruteri/badge-oracle/interfaces"
	"github.com/ruteri/badge-oracle/metrics"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

var ErrBodyTooLarge = errors.New("evidence body exceeds size limit")

// HTTPFetcher implements interfaces.Fetcher with a pooled HTTP client.
// It does not retry; non-200 responses are returned as-is.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
	log          *slog.Logger
}

var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(timeout time.Duration, maxBodyBytes int64, log *slog.Logger) *HTTPFetcher {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &HTTPFetcher{client: client, maxBodyBytes: maxBodyBytes, log: log}
}

// Get fetches url. A body larger than the configured limit fails with
// ErrBodyTooLarge rather than being truncated.
func (f *HTTPFetcher) Get(ctx context.Context, url string) (*interfaces.FetchResponse, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.FetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch evidence: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read evidence: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		status = "too_large"
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrBodyTooLarge, url, f.maxBodyBytes)
	}

	status = strconv.Itoa(resp.StatusCode)
	f.log.Debug("evidence fetched", "url", url, "status", resp.StatusCode, "bytes", len(body))
	return &interfaces.FetchResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
