package memory

import (
	"context"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository in memory.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency sums balances against opening balances plus signed amounts.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance, expectedBalance domain.Money, err error) {
	err = r.store.view(ctx, func() error {
		for _, a := range r.store.accounts {
			totalBalance = totalBalance.Add(a.Balance)
			expectedBalance = expectedBalance.Add(a.OpeningBalance)
		}

		for _, t := range r.store.transactions {
			effect, err := t.Type.SignedAmount(t.Amount)
			if err != nil {
				return err
			}
			expectedBalance = expectedBalance.Add(effect)
		}

		return nil
	})

	return totalBalance, expectedBalance, err
}

var _ usecase.LedgerRepository = (*LedgerRepository)(nil)
