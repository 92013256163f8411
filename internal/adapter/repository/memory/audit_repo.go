package memory

import (
	"context"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository in memory.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// Create stores an audit log outside of any transaction.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.store.view(ctx, func() error {
		r.store.audit = append(r.store.audit, *log)
		return nil
	})
}

// CreateTx stores an audit log inside tx.
func (r *AuditRepository) CreateTx(_ context.Context, tx usecase.Tx, log *domain.AuditLog) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	n := len(r.store.audit)
	r.store.audit = append(r.store.audit, *log)
	t.onRollback(func() { r.store.audit = r.store.audit[:n] })

	return nil
}

// List returns audit logs matching filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog

	err := r.store.view(ctx, func() error {
		for i := len(r.store.audit) - 1; i >= 0; i-- {
			log := r.store.audit[i]
			if filter.UserID != "" && log.UserID != filter.UserID {
				continue
			}
			if filter.Action != "" && log.Action != filter.Action {
				continue
			}
			if filter.ResourceType != "" && log.ResourceType != filter.ResourceType {
				continue
			}
			if filter.ResourceID != "" && log.ResourceID != filter.ResourceID {
				continue
			}
			logs = append(logs, &log)
		}
		limit, offset := domain.NormalizePagination(filter.Limit, filter.Offset)
		logs = paginate(logs, limit, offset)
		return nil
	})

	return logs, err
}

var _ usecase.AuditRepository = (*AuditRepository)(nil)
