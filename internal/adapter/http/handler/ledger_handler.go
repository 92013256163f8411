package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// LedgerChecker verifies ledger-wide balances.
type LedgerChecker interface {
	CheckConsistency(ctx context.Context) (bool, error)
}

// ReportGenerator reconciles every account.
type ReportGenerator interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC   LedgerChecker
	reconciler ReportGenerator
	logger     zerolog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerChecker, reconciler ReportGenerator, logger zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconciler: reconciler, logger: logger}
}

// CheckConsistency checks if the ledger is consistent. An inconsistent
// ledger is reported as a 500 with the consistency flag in the body.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	consistent, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":      "operation_failed",
				"message":    err.Error(),
				"consistent": false,
			})
			return
		}
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{
		Consistent: consistent,
		CheckedAt:  time.Now().UTC(),
	})
}

// Reconciliation reconciles every account and reports the discrepancies.
func (h *LedgerHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromResult(report))
}
