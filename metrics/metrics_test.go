package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result("Duplicated", nil))
	assert.Equal(t, "Duplicated", Result("Duplicated", errors.New("dup")))
	assert.Equal(t, "error", Result("", errors.New("boom")))
}

func TestMetricsServer(t *testing.T) {
	srv, err := New("badge_oracle_test", "127.0.0.1:0")
	require.NoError(t, err)

	before := testutil.ToFloat64(IssueResults.WithLabelValues("ok"))
	IssueResults.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(IssueResults.WithLabelValues("ok")))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "badge_issue_total")
}
