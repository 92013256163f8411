package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres/generated"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, user_id, action, resource_type, resource_id,
		before_state, after_state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry outside of any transaction
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return insertAudit(ctx, r.db, log)
}

// CreateTx inserts a new audit log entry inside tx
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Tx, log *domain.AuditLog) error {
	return insertAudit(ctx, tx.(*Tx).PgxTx(), log)
}

func insertAudit(ctx context.Context, db generated.DBTX, log *domain.AuditLog) error {
	beforeStateJSON, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}

	afterStateJSON, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, insertAuditLog,
		log.ID,
		log.UserID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		beforeStateJSON,
		afterStateJSON,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1
	`
	args := []any{}

	addFilter := func(column string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}

	if filter.UserID != "" {
		addFilter("user_id", filter.UserID)
	}
	if filter.Action != "" {
		addFilter("action", string(filter.Action))
	}
	if filter.ResourceType != "" {
		addFilter("resource_type", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		addFilter("resource_id", filter.ResourceID)
	}

	limit, offset := domain.NormalizePagination(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*domain.AuditLog{}
	for rows.Next() {
		var (
			log                             domain.AuditLog
			action, status                  string
			beforeStateJSON, afterStateJSON []byte
		)

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&beforeStateJSON,
			&afterStateJSON,
			&status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)

		if beforeStateJSON != nil {
			_ = json.Unmarshal(beforeStateJSON, &log.BeforeState)
		}

		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}

	return json.Marshal(state)
}

var _ usecase.AuditRepository = (*AuditRepository)(nil)
