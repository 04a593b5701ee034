package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/bookshelf/internal/metrics"
)

// Prometheus records request duration and count. Scrapes and health probes
// are not recorded.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metrics", "/health", "/ready":
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		sw := wrapWriter(w)
		next.ServeHTTP(sw, r)
		metrics.RecordRequest(r.Method, r.URL.Path, sw.status, time.Since(start).Seconds())
	})
}
