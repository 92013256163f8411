package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	AddTransaction(ctx context.Context, input usecase.AddTransactionInput) (*usecase.TransactionResult, error)
	GetAccountTransactions(ctx context.Context, input usecase.GetAccountTransactionsInput) ([]*domain.Transaction, error)
	EditTransaction(ctx context.Context, input usecase.EditTransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, input usecase.DeleteTransactionInput) (*domain.Transaction, error)
	GetTransactionSumsFromRange(ctx context.Context, input usecase.TransactionSumsInput) (domain.TransactionSums, error)
}

// TransactionHandler handles the transactions of a single account.
type TransactionHandler struct {
	transactionUC TransactionService
	logger        zerolog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC, logger: logger}
}

// List returns a page of the account's transactions in ledger order.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, offset := domain.NormalizePagination(
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)

	transactions, err := h.transactionUC.GetAccountTransactions(r.Context(), usecase.GetAccountTransactionsInput{
		AccountID:    chi.URLParam(r, "id"),
		CallerUserID: userID,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Offset:       offset,
		Limit:        limit,
	})
}

// Add records a deposit or withdrawal.
func (h *TransactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.AddTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	result, err := h.transactionUC.AddTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AddTransactionFromResult(result))
}

// Edit changes the description and date of a deposit or withdrawal.
func (h *TransactionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.EditTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), userID, chi.URLParam(r, "txID"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	transaction, err := h.transactionUC.EditTransaction(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Delete removes a deposit or withdrawal and reverses its effect.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	transaction, err := h.transactionUC.DeleteTransaction(r.Context(), usecase.DeleteTransactionInput{
		AccountID:     chi.URLParam(r, "id"),
		CallerUserID:  userID,
		TransactionID: chi.URLParam(r, "txID"),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Sums totals the account's transactions per type over [start, end].
func (h *TransactionHandler) Sums(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Get("start") == "" || query.Get("end") == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "start and end are required")
		return
	}

	start, err := dto.ParseDate(query.Get("start"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	end, err := dto.ParseDate(query.Get("end"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	// A calendar end date covers the whole day.
	if len(strings.TrimSpace(query.Get("end"))) == len(dto.DateLayout) {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	sums, err := h.transactionUC.GetTransactionSumsFromRange(r.Context(), usecase.TransactionSumsInput{
		AccountID:    chi.URLParam(r, "id"),
		CallerUserID: userID,
		Start:        start,
		End:          end,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionSumsFromDomain(start, end, sums))
}
