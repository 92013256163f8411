package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/repository/memory"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/auth"
)

type fakeIdempotencyStore struct {
	checkAndSetFn func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	updateFn      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	deleteFn      func(ctx context.Context, key string) error
}

func (f *fakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if f.checkAndSetFn != nil {
		return f.checkAndSetFn(ctx, key, response, ttl)
	}
	return false, nil, nil
}

func (f *fakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, key, response, ttl)
	}
	return nil
}

func (f *fakeIdempotencyStore) Delete(ctx context.Context, key string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, key)
	}
	return nil
}

func postWithKey(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorFailsRequest(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return false, nil, context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(rr, postWithKey("/api/v1/transfers", "key-err"))

	assert.False(t, called, "handler should not be called when store errors")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestIdempotencyMiddleware_DoesNotCacheFailedResponses(t *testing.T) {
	updated := false
	store := &fakeIdempotencyStore{
		updateFn: func(context.Context, string, []byte, time.Duration) error {
			updated = true
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})).ServeHTTP(rr, postWithKey("/api/v1/transfers", "key-fail"))

	assert.False(t, updated, "error responses must not be cached")
}

func TestIdempotencyMiddleware_SkipsSafeMethodsAndMissingKey(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			t.Fatal("store should not be consulted")
			return false, nil, nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	calls := 0
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ })

	get := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	get.Header.Set(IdempotencyKeyHeader, "ignored")
	mw.Wrap(next).ServeHTTP(httptest.NewRecorder(), get)

	post := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil)
	mw.Wrap(next).ServeHTTP(httptest.NewRecorder(), post)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ReplaysLegacyRawBody(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return true, []byte(`{"cached":true}`), nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called when a cached response exists")
	})).ServeHTTP(rr, postWithKey("/api/v1/transfers", "key-123"))

	assert.Equal(t, "true", rr.Header().Get(IdempotencyReplayHeader))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"cached":true}`, rr.Body.String())
}

func TestIdempotencyMiddleware_InFlightKeyIsRejected(t *testing.T) {
	store := &fakeIdempotencyStore{
		checkAndSetFn: func(context.Context, string, []byte, time.Duration) (bool, []byte, error) {
			return true, []byte(processingMarker), nil
		},
		deleteFn: func(context.Context, string) error {
			t.Fatal("a rejected duplicate must not release the first request's key")
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run while the key is in flight")
	})).ServeHTTP(rr, postWithKey("/api/v1/transfers", "key-busy"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "request_in_progress")
	assert.Empty(t, rr.Header().Get(IdempotencyReplayHeader))
}

func TestIdempotencyMiddleware_ConcurrentDuplicateRunsOnce(t *testing.T) {
	mw := NewIdempotencyMiddleware(memory.NewIdempotencyStore(), zerolog.Nop())

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tr-1"}`))
	}))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(first, postWithKey("/api/v1/transfers", "same-key"))
	}()
	<-entered

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("/api/v1/transfers", "same-key"))
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "request_in_progress")

	close(release)
	<-done
	assert.Equal(t, http.StatusCreated, first.Code)

	third := httptest.NewRecorder()
	handler.ServeHTTP(third, postWithKey("/api/v1/transfers", "same-key"))
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get(IdempotencyReplayHeader))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotencyMiddleware_FailedResponseReleasesKey(t *testing.T) {
	mw := NewIdempotencyMiddleware(memory.NewIdempotencyStore(), zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("/api/v1/transfers", "retry-key"))
	require.Equal(t, http.StatusConflict, first.Code)

	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, postWithKey("/api/v1/transfers", "retry-key"))
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Empty(t, retry.Header().Get(IdempotencyReplayHeader))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddleware_ReleaseUsesScopedKey(t *testing.T) {
	var released []string
	store := &fakeIdempotencyStore{
		deleteFn: func(_ context.Context, key string) error {
			released = append(released, key)
			return nil
		},
		updateFn: func(context.Context, string, []byte, time.Duration) error {
			return context.DeadlineExceeded
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	req := postWithKey("/api/v1/transfers", "key-1")
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: "user-1"}))
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"user-1:POST:/api/v1/transfers:key-1"}, released,
		"a response that could not be cached releases the key")
}

func TestIdempotencyMiddleware_StoresStatusAndBody(t *testing.T) {
	var stored []byte
	store := &fakeIdempotencyStore{
		updateFn: func(_ context.Context, _ string, response []byte, _ time.Duration) error {
			stored = append([]byte(nil), response...)
			return nil
		},
	}
	mw := NewIdempotencyMiddleware(store, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})).ServeHTTP(rr, postWithKey("/api/v1/transfers", "key-456"))

	require.Equal(t, http.StatusCreated, rr.Code)

	var cached cachedResponse
	require.NoError(t, json.Unmarshal(stored, &cached))
	assert.Equal(t, http.StatusCreated, cached.Status)
	assert.Equal(t, `{"ok":true}`, string(cached.Body))
}

func TestIdempotencyMiddleware_EndToEndWithMemoryStore(t *testing.T) {
	mw := NewIdempotencyMiddleware(memory.NewIdempotencyStore(), zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tr-1"}`))
	}))

	as := func(userID string) *http.Request {
		req := postWithKey("/api/v1/transfers", "same-key")
		return req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: userID}))
	}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, as("user-1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, as("user-1"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayHeader))

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, as("user-2"))
	assert.Equal(t, 2, calls, "keys are scoped per caller")
}
