package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

const processingMarker = "processing"

type expiringValue struct {
	value     []byte
	expiresAt time.Time
}

// expiringMap is a mutex-guarded map whose entries lapse after their TTL.
type expiringMap struct {
	mu      sync.Mutex
	entries map[string]expiringValue
	now     func() time.Time
}

func newExpiringMap() *expiringMap {
	return &expiringMap{
		entries: make(map[string]expiringValue),
		now:     time.Now,
	}
}

// getLocked must be called with mu held.
func (m *expiringMap) getLocked(key string) ([]byte, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}

	return entry.value, true
}

func (m *expiringMap) setLocked(key string, value []byte, ttl time.Duration) {
	m.entries[key] = expiringValue{value: value, expiresAt: m.now().Add(ttl)}
}

// IdempotencyStore implements usecase.IdempotencyStore for single-process deployments.
type IdempotencyStore struct {
	m *expiringMap
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{m: newExpiringMap()}
}

// CheckAndSet claims key, or returns the value already stored under it.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if existing, ok := s.m.getLocked(key); ok {
		return true, existing, nil
	}

	value := response
	if value == nil {
		value = []byte(processingMarker)
	}
	s.m.setLocked(key, value, ttl)

	return false, nil, nil
}

// Update replaces the value stored under key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.setLocked(key, response, ttl)

	return nil
}

// Delete removes key.
func (s *IdempotencyStore) Delete(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	delete(s.m.entries, key)

	return nil
}

// TokenDenylist implements usecase.TokenDenylist for single-process deployments.
type TokenDenylist struct {
	m *expiringMap
}

// NewTokenDenylist creates a new TokenDenylist.
func NewTokenDenylist() *TokenDenylist {
	return &TokenDenylist{m: newExpiringMap()}
}

// Revoke marks tokenID as revoked for ttl.
func (d *TokenDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	d.m.setLocked(tokenID, nil, ttl)

	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *TokenDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()

	_, ok := d.m.getLocked(tokenID)

	return ok, nil
}

var (
	_ usecase.IdempotencyStore = (*IdempotencyStore)(nil)
	_ usecase.TokenDenylist    = (*TokenDenylist)(nil)
)
