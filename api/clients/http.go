package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/ruteri/badge-oracle/api"
)

var ErrNoSigner = errors.New("request requires a caller signer")

// httpClient is the transport shared by the stubs.
type httpClient struct {
	baseURL string
	client  *http.Client
	signer  api.RequestSigner
	log     *slog.Logger
}

func newHTTPClient(baseURL string, signer api.RequestSigner, log *slog.Logger) httpClient {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 30 * time.Second
	return httpClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		signer:  signer,
		log:     log,
	}
}

// do sends reqBody as JSON and decodes a 2xx response into out. Signed
// requests carry the caller headers.
func (c *httpClient) do(ctx context.Context, method, path string, reqBody any, signed bool, out any) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if signed {
		if c.signer == nil {
			return ErrNoSigner
		}
		if err := api.SignRequest(req, body, c.signer, time.Now()); err != nil {
			return err
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := api.DecodeError(resp)
		c.log.Debug("remote call failed", "method", method, "path", path, "status", resp.StatusCode, "err", err)
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse %s response: %w", path, err)
	}
	return nil
}
