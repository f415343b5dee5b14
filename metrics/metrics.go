// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifications counts classifier round trips by outcome ("ok", "error", "stale").
	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eye_classifications_total",
			Help: "Classification requests by outcome",
		},
		[]string{"status"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eye_classification_duration_seconds",
			Help:    "Classification round trip latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	CaptureErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eye_capture_errors_total",
			Help: "Speech capture errors by code",
		},
		[]string{"code"},
	)

	CaptureRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eye_capture_restarts_total",
			Help: "Scheduled speech capture restarts that fired",
		},
	)

	FallbackActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eye_fallback_active",
			Help: "1 once the manual text entry fallback is shown",
		},
	)

	ServerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eye_server_requests_total",
			Help: "Classifier service requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	ServerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eye_server_request_duration_seconds",
			Help:    "Classifier service request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)
