package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/accounts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/ABC123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/DEF456", nil))

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/accounts/{id}", "418")
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestMetricsMiddlewareFallsBackToNormalizedPath(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	handler := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/transfers/XYZ", nil))

	counter := m.HTTPRequests.WithLabelValues(http.MethodPost, "/api/v1/transfers/:id", "201")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestMetricsMiddlewareNilMetrics(t *testing.T) {
	called := false
	handler := Metrics(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, called)
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"account path without suffix", "/api/v1/accounts/ABC123", "/api/v1/accounts/:id"},
		{"account path with suffix", "/api/v1/accounts/ABC123/close", "/api/v1/accounts/:id/close"},
		{"nested transaction", "/api/v1/accounts/ABC/transactions/DEF", "/api/v1/accounts/:id/transactions/:id"},
		{"transaction sums", "/api/v1/accounts/ABC/transactions/sums", "/api/v1/accounts/:id/transactions/sums"},
		{"transfer path", "/api/v1/transfers/XYZ789", "/api/v1/transfers/:id"},
		{"collection", "/api/v1/accounts", "/api/v1/accounts"},
		{"non-matching path", "/health", "/health"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, normalizePath(tc.input))
		})
	}
}
