// Package metrics exposes Prometheus collectors for the scraper and loader.
package metrics

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchRequestsTotal      *prometheus.CounterVec
	fetchRetriesTotal       *prometheus.CounterVec
	fetchLimiterWaitSeconds prometheus.Histogram
	artifactsWrittenTotal   *prometheus.CounterVec
	matchesTotal            *prometheus.CounterVec
	rowsInsertedTotal       *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlr_fetch_requests_total",
				Help: "Outbound fetch attempts, labeled by host and status class.",
			},
			[]string{"host", "status"},
		)

		fetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlr_fetch_retries_total",
				Help: "Fetch retries, labeled by reason.",
			},
			[]string{"reason"},
		)

		fetchLimiterWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vlr_fetch_limiter_wait_seconds",
				Help:    "Time spent waiting for the shared request limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
			},
		)

		artifactsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlr_artifacts_written_total",
				Help: "Artifact files written, labeled by category.",
			},
			[]string{"category"},
		)

		matchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlr_matches_total",
				Help: "Matches handled, labeled by pipeline stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		rowsInsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vlr_rows_inserted_total",
				Help: "Rows newly inserted into the relational store, labeled by table.",
			},
			[]string{"table"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname, or "unknown" for unparsable input.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// StatusClass folds an HTTP status into 2xx/3xx/4xx/5xx, keeping 404 and 429 distinct.
// Zero means the request never produced a response.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "transport_error"
	case code == 404 || code == 429:
		return strconv.Itoa(code)
	default:
		return strconv.Itoa(code/100) + "xx"
	}
}

// ObserveFetch counts one fetch attempt.
func ObserveFetch(rawURL string, code int) {
	Init()
	fetchRequestsTotal.WithLabelValues(SanitizeHost(rawURL), StatusClass(code)).Inc()
}

// ObserveRetry counts one retry scheduled for the given reason.
func ObserveRetry(reason string) {
	Init()
	fetchRetriesTotal.WithLabelValues(reason).Inc()
}

// ObserveLimiterWait records how long a caller waited on the request limiter.
func ObserveLimiterWait(d time.Duration) {
	Init()
	fetchLimiterWaitSeconds.Observe(d.Seconds())
}

// ObserveArtifact counts one artifact file written.
func ObserveArtifact(category string) {
	Init()
	artifactsWrittenTotal.WithLabelValues(category).Inc()
}

// ObserveMatch counts a match outcome for "crawl" or "ingest".
func ObserveMatch(stage, outcome string) {
	Init()
	matchesTotal.WithLabelValues(stage, outcome).Inc()
}

// ObserveRows adds newly inserted rows for a table.
func ObserveRows(table string, n int) {
	if n <= 0 {
		return
	}
	Init()
	rowsInsertedTotal.WithLabelValues(table).Add(float64(n))
}
