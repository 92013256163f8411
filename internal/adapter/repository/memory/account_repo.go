package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository in memory.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Tx, account *domain.Account) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	if _, exists := r.store.accounts[account.ID]; exists {
		return fmt.Errorf("memory: duplicate account id %q", account.ID)
	}

	r.store.accounts[account.ID] = *account
	t.onRollback(func() { delete(r.store.accounts, account.ID) })

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account

	err := r.store.view(ctx, func() error {
		a, ok := r.store.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = &a
		return nil
	})

	return account, err
}

// GetByIDForUpdate retrieves an account inside tx. The store lock already serializes writers.
func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	if _, err := activeTx(r.store, tx); err != nil {
		return nil, err
	}

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return &a, nil
}

// GetByIDsForUpdate retrieves the accounts that exist, in the order of ids.
func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	if _, err := activeTx(r.store, tx); err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.store.accounts[id]; ok {
			accounts = append(accounts, &a)
		}
	}

	return accounts, nil
}

// ListByOwner lists the owner's accounts in creation order.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	var accounts []*domain.Account

	err := r.store.view(ctx, func() error {
		for _, a := range r.sorted() {
			if a.OwnerID == ownerID {
				accounts = append(accounts, a)
			}
		}
		return nil
	})

	return accounts, err
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account

	err := r.store.view(ctx, func() error {
		accounts = paginate(r.sorted(), limit, offset)
		return nil
	})

	return accounts, err
}

// UpdateName changes the display name.
func (r *AccountRepository) UpdateName(_ context.Context, tx usecase.Tx, id, name string, updatedAt time.Time) error {
	return r.update(tx, id, func(a *domain.Account) {
		a.Name = name
		a.UpdatedAt = updatedAt
	})
}

// UpdateBalance sets the balance.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Tx, id string, balance domain.Money, updatedAt time.Time) error {
	return r.update(tx, id, func(a *domain.Account) {
		a.Balance = balance
		a.UpdatedAt = updatedAt
	})
}

// Delete removes an account and reports whether it existed.
func (r *AccountRepository) Delete(_ context.Context, tx usecase.Tx, id string) (bool, error) {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return false, err
	}

	previous, ok := r.store.accounts[id]
	if !ok {
		return false, nil
	}

	delete(r.store.accounts, id)
	t.onRollback(func() { r.store.accounts[id] = previous })

	return true, nil
}

func (r *AccountRepository) update(tx usecase.Tx, id string, mutate func(*domain.Account)) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	previous, ok := r.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	next := previous
	mutate(&next)
	r.store.accounts[id] = next
	t.onRollback(func() { r.store.accounts[id] = previous })

	return nil
}

func (r *AccountRepository) sorted() []*domain.Account {
	accounts := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		a := a
		accounts = append(accounts, &a)
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}

	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}

var _ usecase.AccountRepository = (*AccountRepository)(nil)
