package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	ListAuditTrail(ctx context.Context, input usecase.AuditTrailInput) ([]*domain.AuditLog, error)
}

// AuditHandler exposes the caller's audit trail.
type AuditHandler struct {
	auditUC AuditService
	logger  zerolog.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{auditUC: auditUC, logger: logger}
}

// List returns a page of the caller's audit entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit, offset := domain.NormalizePagination(
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)

	query := r.URL.Query()
	logs, err := h.auditUC.ListAuditTrail(r.Context(), usecase.AuditTrailInput{
		CallerUserID: userID,
		Action:       domain.AuditAction(query.Get("action")),
		ResourceType: query.Get("resource_type"),
		ResourceID:   query.Get("resource_id"),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAuditLogsResponse{
		AuditLogs: dto.AuditLogsFromDomain(logs),
		Offset:    offset,
		Limit:     limit,
	})
}
