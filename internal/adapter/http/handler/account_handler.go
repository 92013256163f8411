package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetAccount(ctx context.Context, accountID, callerUserID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, callerUserID string) ([]*domain.Account, error)
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	CloseAccount(ctx context.Context, input usecase.CloseAccountInput) (*domain.Account, error)
	ChangeAccountName(ctx context.Context, input usecase.ChangeAccountNameInput) (*domain.Account, error)
}

// AccountReconciler checks one account's balance against its history.
type AccountReconciler interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC  AccountService
	reconciler AccountReconciler
	logger     zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, reconciler AccountReconciler, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, reconciler: reconciler, logger: logger}
}

// Open opens a new account for the caller.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves one of the caller's accounts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Rename changes an account's display name.
func (h *AccountHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.RenameAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.ChangeAccountName(r.Context(), usecase.ChangeAccountNameInput{
		AccountID:    chi.URLParam(r, "id"),
		CallerUserID: userID,
		Name:         req.Name,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Close closes an empty account after the caller re-enters their credentials.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CloseAccount(r.Context(), usecase.CloseAccountInput{
		AccountID:    chi.URLParam(r, "id"),
		CallerUserID: userID,
		Credentials:  req.ToDomain(),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Reconcile compares one of the caller's accounts with its transaction history.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if _, err := h.accountUC.GetAccount(r.Context(), accountID, userID); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	result, err := h.reconciler.ReconcileAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}
