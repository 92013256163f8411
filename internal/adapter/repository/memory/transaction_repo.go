package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository in memory.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create stores a new transaction.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	if _, exists := r.store.transactions[transaction.ID]; exists {
		return fmt.Errorf("memory: duplicate transaction id %q", transaction.ID)
	}

	r.store.transactions[transaction.ID] = *transaction
	t.onRollback(func() { delete(r.store.transactions, transaction.ID) })

	return nil
}

// GetByID retrieves a transaction that belongs to accountID.
func (r *TransactionRepository) GetByID(_ context.Context, tx usecase.Tx, accountID, id string) (*domain.Transaction, error) {
	if _, err := activeTx(r.store, tx); err != nil {
		return nil, err
	}

	transaction, ok := r.store.transactions[id]
	if !ok || transaction.AccountID != accountID {
		return nil, domain.ErrTransactionNotFound
	}

	return &transaction, nil
}

// ListByAccount lists a page of the account's transactions in ledger order.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction

	err := r.store.view(ctx, func() error {
		transactions = paginate(r.filter(func(t *domain.Transaction) bool {
			return t.AccountID == accountID
		}), limit, offset)
		return nil
	})

	return transactions, err
}

// ListAllByAccount lists every transaction of the account in ledger order.
func (r *TransactionRepository) ListAllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction

	err := r.store.view(ctx, func() error {
		transactions = r.filter(func(t *domain.Transaction) bool {
			return t.AccountID == accountID
		})
		return nil
	})

	return transactions, err
}

// ListByDateRange lists the account's transactions dated within [start, end].
func (r *TransactionRepository) ListByDateRange(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction

	err := r.store.view(ctx, func() error {
		transactions = r.filter(func(t *domain.Transaction) bool {
			return t.AccountID == accountID && !t.Date.Before(start) && !t.Date.After(end)
		})
		return nil
	})

	return transactions, err
}

// ListByTransferID lists both legs of a transfer.
func (r *TransactionRepository) ListByTransferID(ctx context.Context, transferID string) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction

	err := r.store.view(ctx, func() error {
		transactions = r.filter(func(t *domain.Transaction) bool {
			return transferID != "" && t.TransferID == transferID
		})
		return nil
	})

	return transactions, err
}

// UpdateDetails changes the description and date.
func (r *TransactionRepository) UpdateDetails(_ context.Context, tx usecase.Tx, accountID, id, description string, date time.Time) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	previous, ok := r.store.transactions[id]
	if !ok || previous.AccountID != accountID {
		return domain.ErrTransactionNotFound
	}

	next := previous
	next.Description = description
	next.Date = date
	r.store.transactions[id] = next
	t.onRollback(func() { r.store.transactions[id] = previous })

	return nil
}

// Delete removes a transaction and reports whether it existed on the account.
func (r *TransactionRepository) Delete(_ context.Context, tx usecase.Tx, accountID, id string) (bool, error) {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return false, err
	}

	previous, ok := r.store.transactions[id]
	if !ok || previous.AccountID != accountID {
		return false, nil
	}

	delete(r.store.transactions, id)
	t.onRollback(func() { r.store.transactions[id] = previous })

	return true, nil
}

// ShiftResultingBalances adds delta to every later snapshot on the account.
func (r *TransactionRepository) ShiftResultingBalances(_ context.Context, tx usecase.Tx, accountID string, after *domain.Transaction, delta domain.Money) (int64, error) {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return 0, err
	}

	var shifted int64
	for id, transaction := range r.store.transactions {
		if transaction.AccountID != accountID || !transaction.ComesAfter(after) {
			continue
		}

		previous := transaction
		transaction.ResultingBalance = transaction.ResultingBalance.Add(delta)
		r.store.transactions[id] = transaction
		t.onRollback(func() { r.store.transactions[previous.ID] = previous })
		shifted++
	}

	return shifted, nil
}

// DeleteByAccount removes every transaction of the account.
func (r *TransactionRepository) DeleteByAccount(_ context.Context, tx usecase.Tx, accountID string) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	for id, transaction := range r.store.transactions {
		if transaction.AccountID != accountID {
			continue
		}

		previous := transaction
		delete(r.store.transactions, id)
		t.onRollback(func() { r.store.transactions[previous.ID] = previous })
	}

	return nil
}

func (r *TransactionRepository) filter(keep func(*domain.Transaction) bool) []*domain.Transaction {
	var transactions []*domain.Transaction
	for _, t := range r.store.transactions {
		t := t
		if keep(&t) {
			transactions = append(transactions, &t)
		}
	}

	sort.Slice(transactions, func(i, j int) bool {
		return transactions[j].ComesAfter(transactions[i])
	})

	return transactions
}

var _ usecase.TransactionRepository = (*TransactionRepository)(nil)
