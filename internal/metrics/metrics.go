// Package metrics exposes Prometheus collectors for the crawl service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_pages_fetched_total",
			Help: "Total catalog pages fetched, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_fetch_retries_total",
			Help: "Total page fetch retries after a transient failure.",
		},
	)

	candidatesParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_candidates_parsed_total",
			Help: "Total product candidates extracted from catalog pages.",
		},
	)

	recordsAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_records_accepted_total",
			Help: "Total candidates accepted as new or price-changed.",
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_runs_total",
			Help: "Total crawl runs, labeled by terminal status.",
		},
		[]string{"status"},
	)

	imageDownloadSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricewatch_image_download_seconds",
			Help:    "Histogram of product image download durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePageFetch increments the fetched-pages counter for the given outcome.
func ObservePageFetch(outcome string) {
	pagesFetchedTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchRetry counts one retry attempt.
func ObserveFetchRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveCandidates counts candidates extracted from one page.
func ObserveCandidates(n int) {
	if n > 0 {
		candidatesParsedTotal.Add(float64(n))
	}
}

// ObserveRecordAccepted counts one accepted record.
func ObserveRecordAccepted() {
	recordsAcceptedTotal.Inc()
}

// ObserveRun increments the run counter for the given terminal status.
func ObserveRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// ObserveImageDownload records the duration of one image download.
func ObserveImageDownload(duration time.Duration) {
	imageDownloadSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
