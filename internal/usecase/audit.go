package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// writeAudit stores a successful audit entry in tx. A nil repository disables auditing.
func writeAudit(ctx context.Context, repo AuditRepository, idGen IDGenerator, tx Tx, log *domain.AuditLog) error {
	if repo == nil {
		return nil
	}

	log.ID = idGen.Generate()
	log.Status = domain.AuditStatusSuccess

	return repo.CreateTx(ctx, tx, log)
}

// writeFailedAudit records a rejected operation outside of any transaction.
// It must run after the operation's transaction has been rolled back.
func writeFailedAudit(ctx context.Context, repo AuditRepository, idGen IDGenerator, logger zerolog.Logger, m *metrics.Metrics, log *domain.AuditLog, cause error) {
	if repo == nil {
		return
	}

	log.ID = idGen.Generate()
	log.Status = domain.AuditStatusFailure
	log.ErrorMessage = cause.Error()

	if err := repo.Create(context.WithoutCancel(ctx), log); err != nil {
		logger.Warn().Err(err).Str("action", string(log.Action)).Str("resource_id", log.ResourceID).Msg("failed to record audit failure")
		return
	}

	if m != nil {
		m.AuditLogsCreated.WithLabelValues(string(log.Action), string(domain.AuditStatusFailure)).Inc()
	}
}

// AuditTrailInput selects a page of the caller's audit trail.
type AuditTrailInput struct {
	CallerUserID string
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Offset       int
	Limit        int
}

// AuditUseCase reads the audit trail of destructive operations.
type AuditUseCase struct {
	auditRepo AuditRepository
	logger    zerolog.Logger
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(auditRepo AuditRepository, logger zerolog.Logger) *AuditUseCase {
	return &AuditUseCase{
		auditRepo: auditRepo,
		logger:    logger.With().Str("component", "audit_usecase").Logger(),
	}
}

// ListAuditTrail returns the caller's own audit entries, newest first. Entries
// of closed accounts stay readable.
func (uc *AuditUseCase) ListAuditTrail(ctx context.Context, input AuditTrailInput) ([]*domain.AuditLog, error) {
	if input.CallerUserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if input.Action != "" && !input.Action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidAuditFilter, input.Action)
	}
	if input.ResourceType != "" && !domain.IsAuditResource(input.ResourceType) {
		return nil, fmt.Errorf("%w: unknown resource type %q", domain.ErrInvalidAuditFilter, input.ResourceType)
	}

	limit, offset := domain.NormalizePagination(input.Limit, input.Offset)

	logs, err := uc.auditRepo.List(ctx, domain.AuditFilter{
		UserID:       input.CallerUserID,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, failure(uc.logger, "list audit trail", err)
	}

	if logs == nil {
		logs = []*domain.AuditLog{}
	}

	return logs, nil
}
