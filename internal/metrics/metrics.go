// Package metrics exposes Prometheus collectors for the profile delivery service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appprofiler_uploads_total",
			Help: "Total number of profile uploads, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appprofiler_upload_bytes_total",
			Help: "Total number of raw profile bytes successfully uploaded.",
		},
	)

	redirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appprofiler_redirects_total",
			Help: "Total number of responses redirected to a hosted profile view.",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appprofiler_notifications_total",
			Help: "Total number of upload notifications, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	viewerRoutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appprofiler_viewer_routes_total",
			Help: "Total number of requests classified by the viewer router, labeled by route.",
		},
		[]string{"route"},
	)

	ingestThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appprofiler_ingest_throttled_total",
			Help: "Total number of ingest requests rejected by the per-client rate limiter.",
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

// ObserveUpload records one upload attempt.
func ObserveUpload(outcome string, bytesUploaded int) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess && bytesUploaded > 0 {
		uploadBytesTotal.Add(float64(bytesUploaded))
	}
}

// ObserveRedirect records a redirect to a hosted view.
func ObserveRedirect() {
	redirectsTotal.Inc()
}

// ObserveNotification records one upload notification attempt.
func ObserveNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRoute records a viewer routing decision.
func ObserveRoute(route string) {
	viewerRoutesTotal.WithLabelValues(route).Inc()
}

// ObserveThrottled records an ingest request rejected by the rate limiter.
func ObserveThrottled() {
	ingestThrottledTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
