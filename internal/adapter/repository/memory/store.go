// Package memory is an in-process storage backend for development and tests.
// Every transaction holds a store-wide lock from Begin until Commit or
// Rollback, so balance mutations are fully serialized. Rollback replays an
// undo log.
package memory

import (
	"context"
	"errors"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// ErrTxDone is returned when a finished or foreign transaction is used.
var ErrTxDone = errors.New("memory: transaction has already been committed or rolled back")

// Store holds all tables of the memory backend.
type Store struct {
	lock chan struct{}

	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	outbox       map[string]domain.OutboxEvent
	audit        []domain.AuditLog
	users        map[string]domain.User
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		lock:         make(chan struct{}, 1),
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		outbox:       make(map[string]domain.OutboxEvent),
		users:        make(map[string]domain.User),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.lock
}

// view runs fn outside of any transaction while holding the store lock.
func (s *Store) view(ctx context.Context, fn func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return fn()
}

// Tx is a memory transaction.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps every change made in the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}

	t.done = true
	t.undo = nil
	t.store.release()

	return nil
}

// Rollback undoes every change made in the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}

	t.rollback()

	return nil
}

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}

	t.done = true
	t.undo = nil
	t.store.release()
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// TxManager begins memory transactions.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for the store lock. Waiting honours ctx cancellation.
func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}

	return &Tx{store: m.store}, nil
}

func activeTx(store *Store, tx usecase.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil || t.done || t.store != store {
		return nil, ErrTxDone
	}
	return t, nil
}

var _ usecase.TransactionManager = (*TxManager)(nil)
