// Package metrics holds the Prometheus collectors of the badge oracle and
// the HTTP server that exposes them.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BadgesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "badges_created_total",
		Help: "Number of badges created",
	})
	CodesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "badge_codes_added_total",
		Help: "Number of redeem codes loaded into badges",
	})
	IssueResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "badge_issue_total",
		Help: "Issue calls by result code",
	}, []string{"result"})
	AttestationsSigned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_attestations_signed_total",
		Help: "Attestations signed by oracle",
	}, []string{"oracle"})
	RedeemResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_redeem_total",
		Help: "Redeem calls by oracle and result code",
	}, []string{"oracle", "result"})
	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evidence_fetch_duration_seconds",
		Help:    "Duration of evidence fetches by status",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

// Result returns the label used for an operation outcome.
func Result(code string, err error) string {
	if err == nil {
		return "ok"
	}
	if code == "" {
		return "error"
	}
	return code
}

func init() {
	prometheus.MustRegister(BadgesCreated, CodesAdded, IssueResults, AttestationsSigned, RedeemResults, FetchDuration)
}

// MetricsServer serves /metrics for the default registry.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server. The process collector is labeled with namespace.
func New(namespace string, listenAddr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace})); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, registry},
		promhttp.HandlerOpts{},
	))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// Handler exposes the metrics handler, mainly for tests.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}
