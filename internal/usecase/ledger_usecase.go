package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

var (
	// ErrInconsistentLedger is returned when stored balances disagree with the transaction history.
	ErrInconsistentLedger = fmt.Errorf("%w: ledger is inconsistent: balances do not match transaction history", domain.ErrOperationFailed)
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, logger zerolog.Logger, metrics *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		logger:     logger.With().Str("component", "ledger_usecase").Logger(),
		metrics:    metrics,
	}
}

// CheckConsistency verifies that the sum of all balances equals the sum of
// opening balances plus every signed transaction amount.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totalBalance, expected, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return false, failure(uc.logger, "check consistency", err)
	}

	if !totalBalance.Equal(expected) {
		uc.record("inconsistent")
		uc.logger.Error().
			Str("total_balance", totalBalance.String()).
			Str("expected_balance", expected.String()).
			Msg("ledger inconsistency detected")
		return false, ErrInconsistentLedger
	}

	uc.record("consistent")

	return true, nil
}

func (uc *LedgerUseCase) record(result string) {
	if uc.metrics != nil {
		uc.metrics.LedgerChecks.WithLabelValues(result).Inc()
	}
}
