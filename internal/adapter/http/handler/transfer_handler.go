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

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	TransferToAccount(ctx context.Context, input usecase.TransferInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, transferID, callerUserID string) (*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	logger     zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, logger: logger}
}

// Create moves money between two of the caller's accounts.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	transfer, err := h.transferUC.TransferToAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer with both of its legs.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}
