package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthAttempts counts register and login attempts by outcome
	// (ok, duplicate, invalid, error).
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_auth_attempts_total",
			Help: "Register and login attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// ReviewAccessDenied counts refused single-review operations by reason
	// (not_found, forbidden).
	ReviewAccessDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookshelf_review_access_denied_total",
			Help: "Review operations refused by the ownership check",
		},
		[]string{"reason"},
	)

	// SessionsPurged counts expired session rows removed by the janitor.
	SessionsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookshelf_sessions_purged_total",
			Help: "Expired sessions removed by the purge job",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthAttempts, ReviewAccessDenied, SessionsPurged)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /reviews/123 -> /reviews/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuthAttempt records a register or login attempt.
func IncAuthAttempt(kind, outcome string) {
	AuthAttempts.WithLabelValues(kind, outcome).Inc()
}

// IncReviewDenied records a refused review operation.
func IncReviewDenied(reason string) {
	ReviewAccessDenied.WithLabelValues(reason).Inc()
}

// AddSessionsPurged records n purged sessions.
func AddSessionsPurged(n int64) {
	if n > 0 {
		SessionsPurged.Add(float64(n))
	}
}
