package middleware

import (
	"net/http"
	"time"

	"sevapay/internal/logger"
	"sevapay/internal/metrics"
)

// MetricsMiddleware must wrap the mux directly so the matched pattern is
// visible once the handler returns.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := logger.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, rec.Status, time.Since(start))
	})
}
