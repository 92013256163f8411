package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/logger"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks responses served from the cache.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	idempotencyTTL   = 24 * time.Hour
	processingMarker = "processing"
)

// cachedResponse is what gets stored for a completed request.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body,omitempty"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped to the caller, method and path.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	logger zerolog.Logger
	ttl    time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, logger zerolog.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store, logger: logger, ttl: idempotencyTTL}
}

// WithTTL sets how long keys are remembered. Non-positive values keep the default.
func (m *IdempotencyMiddleware) WithTTL(ttl time.Duration) *IdempotencyMiddleware {
	if ttl > 0 {
		m.ttl = ttl
	}
	return m
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromContext(r.Context(), m.logger)
		scoped := scopeKey(r, key)

		exists, cached, err := m.store.CheckAndSet(r.Context(), scoped, nil, m.ttl)
		if err != nil {
			log.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "operation failed: idempotency check")
			return
		}

		if exists {
			if cached == nil || string(cached) == processingMarker {
				writeJSONError(w, http.StatusConflict, "request_in_progress", "a request with this idempotency key is still being processed")
				return
			}
			replay(w, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}

		// The claim is released unless a successful response replaces it, so a
		// failed or aborted request can be retried under the same key.
		succeeded := false
		defer func() {
			if succeeded {
				return
			}
			if err := m.store.Delete(context.WithoutCancel(r.Context()), scoped); err != nil {
				log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}()

		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			return
		}

		payload, err := json.Marshal(cachedResponse{
			Status: recorder.statusCode,
			Body:   recorder.body.Bytes(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("response is not cacheable")
			return
		}

		if err := m.store.Update(r.Context(), scoped, payload, m.ttl); err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to cache idempotent response")
			return
		}
		succeeded = true
	})
}

func replay(w http.ResponseWriter, raw []byte) {
	var cached cachedResponse
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Status == 0 {
		cached = cachedResponse{Status: http.StatusOK, Body: raw}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

func scopeKey(r *http.Request, key string) string {
	userID, _ := UserIDFromContext(r.Context())
	return userID + ":" + r.Method + ":" + r.URL.Path + ":" + key
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
