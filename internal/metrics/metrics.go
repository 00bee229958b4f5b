// Package metrics registers the Prometheus metrics of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lostfound_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	claimEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_claim_events_total",
		Help: "Claim lifecycle events by kind",
	}, []string{"event"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_login_attempts_total",
		Help: "Login attempts by kind and result",
	}, []string{"kind", "result"})

	archiveRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_archive_runs_total",
		Help: "Archive sweeps by trigger and result",
	}, []string{"trigger", "result"})

	reportsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_reports_archived_total",
		Help: "Missing reports moved to the archive",
	})
)

// Claim lifecycle events.
const (
	ClaimCreated  = "created"
	ClaimResolved = "resolved"
	ClaimDeleted  = "deleted"
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveClaim counts a claim lifecycle event.
func ObserveClaim(event string) {
	claimEvents.WithLabelValues(event).Inc()
}

// ObserveLogin counts a login attempt. kind is "student" or "admin"; result
// is "success", "failure" or "throttled".
func ObserveLogin(kind, result string) {
	loginAttempts.WithLabelValues(kind, result).Inc()
}

// ObserveArchive records an archive sweep and how many reports it moved.
func ObserveArchive(trigger string, moved int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	archiveRuns.WithLabelValues(trigger, result).Inc()
	if moved > 0 {
		reportsArchived.Add(float64(moved))
	}
}
