package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records request counts and latencies per route pattern.
// The chi route pattern (not the raw path) is used as the label to keep
// cardinality bounded.
func MetricsMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}

			HttpRequestsTotal.WithLabelValues(
				serviceName, r.Method, pattern, strconv.Itoa(rec.status),
			).Inc()
			HttpRequestDuration.WithLabelValues(
				serviceName, r.Method, pattern,
			).Observe(time.Since(start).Seconds())
		})
	}
}
