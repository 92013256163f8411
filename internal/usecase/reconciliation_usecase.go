package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	txRepo      TransactionRepository
	ledger      *LedgerUseCase
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	ledger *LedgerUseCase,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		ledger:      ledger,
		logger:      logger.With().Str("component", "reconciliation_usecase").Logger(),
		metrics:     metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   domain.Money
	CalculatedBalance domain.Money
	Difference        domain.Money
	// MismatchedTransactions lists transactions whose resulting balance
	// disagrees with the replayed trajectory.
	MismatchedTransactions []string
	TransactionCount       int
	IsReconciled           bool
	LastChecked            time.Time
}

// ReconcileAccount replays the account's transactions in ledger order,
// starting from the opening balance.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	const op = "reconcile account"

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	transactions, err := uc.txRepo.ListAllByAccount(ctx, accountID)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	balance := account.OpeningBalance
	mismatched := []string{}

	for _, t := range transactions {
		effect, err := t.Type.SignedAmount(t.Amount)
		if err != nil {
			return nil, err
		}

		balance = balance.Add(effect)

		if !t.ResultingBalance.Equal(balance) {
			mismatched = append(mismatched, t.ID)
		}
	}

	return &ReconciliationResult{
		AccountID:              accountID,
		RecordedBalance:        account.Balance,
		CalculatedBalance:      balance,
		Difference:             account.Balance.Sub(balance),
		MismatchedTransactions: mismatched,
		TransactionCount:       len(transactions),
		IsReconciled:           account.Balance.Equal(balance) && len(mismatched) == 0,
		LastChecked:            time.Now().UTC(),
	}, nil
}

// ReconcileAllAccounts reconciles all accounts in the system
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconcileBatchSize {
		accounts, err := uc.accountRepo.List(ctx, reconcileBatchSize, offset)
		if err != nil {
			return nil, failure(uc.logger, "reconcile all accounts", err)
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, account.ID)
			if err != nil {
				if domain.KindOf(err) == domain.ErrNotFound {
					// closed after listing
					continue
				}
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < reconcileBatchSize {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles every account and runs the ledger-wide check.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	consistent, err := uc.ledger.CheckConsistency(ctx)
	if err != nil && !errors.Is(err, ErrInconsistentLedger) {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: consistent,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationDiscrepancies.Set(float64(len(report.Discrepancies)))
	}

	if len(report.Discrepancies) > 0 {
		uc.logger.Warn().Int("discrepancies", len(report.Discrepancies)).Msg("reconciliation found discrepancies")
	}

	return report, nil
}
