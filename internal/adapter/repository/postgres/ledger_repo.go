package postgres

import (
	"context"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres/generated"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db generated.DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency returns the sum of all balances and the balance the
// transaction history implies.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalBalance, expectedBalance domain.Money, err error) {
	q := generated.New(r.db)
	result, err := q.CheckLedgerConsistency(ctx)
	if err != nil {
		return domain.Zero, domain.Zero, err
	}

	return numericToMoney(result.TotalAccountBalance), numericToMoney(result.ExpectedBalance), nil
}

var _ usecase.LedgerRepository = (*LedgerRepository)(nil)
