package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// Metrics returns a middleware that records request counts and latencies.
// A nil m disables recording.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := routeLabel(r)
			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel prefers the matched chi pattern and falls back to normalizePath.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return normalizePath(r.URL.Path)
}

// collections whose next path segment is an identifier.
var idCollections = map[string]bool{
	"accounts":     true,
	"transactions": true,
	"transfers":    true,
}

// sub-resources that look like identifiers but are fixed names.
var fixedSegments = map[string]bool{
	"sums":           true,
	"close":          true,
	"reconciliation": true,
	"transactions":   true,
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /api/v1/accounts/01ABC/transactions/01DEF -> /api/v1/accounts/:id/transactions/:id
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if segments[i] == "" || fixedSegments[segments[i]] {
			continue
		}
		if idCollections[segments[i-1]] {
			segments[i] = ":id"
		}
	}

	return strings.Join(segments, "/")
}
