package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres/generated"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// OutboxRepository stores ledger events next to the balance changes that
// produced them, for the publisher to drain.
type OutboxRepository struct {
	queries *generated.Queries
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

// Create appends event inside tx so it commits or rolls back with the ledger write.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	params, err := outboxParams(event)
	if err != nil {
		return err
	}

	if _, err := queriesFor(tx).CreateOutboxEvent(ctx, params); err != nil {
		return fmt.Errorf("insert %s event for %s %s: %w", event.EventType, event.AggregateType, event.AggregateID, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events in commit order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	batch, _ := pageArgs(limit, 0)

	rows, err := r.queries.GetUnpublishedEvents(ctx, batch)
	if err != nil {
		return nil, err
	}

	events := make([]*domain.OutboxEvent, len(rows))
	for i, row := range rows {
		events[i] = rowToOutboxEvent(row)
	}
	return events, nil
}

// MarkPublished records that the event reached the broker.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("mark event %s published: %w", id, err)
	}
	return nil
}

// DeletePublished purges events published before the retention cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before)); err != nil {
		return fmt.Errorf("purge events published before %s: %w", before.Format(time.RFC3339), err)
	}
	return nil
}

func outboxParams(event *domain.OutboxEvent) (generated.CreateOutboxEventParams, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return generated.CreateOutboxEventParams{}, fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}

	return generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	}, nil
}

func rowToOutboxEvent(row generated.OutboxEvent) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		Payload:       decodePayload(row.Payload),
		CreatedAt:     row.CreatedAt.Time,
		PublishedAt:   optionalTime(row.PublishedAt),
		Published:     row.Published,
	}
}

// decodePayload returns nil for an empty or unreadable payload.
func decodePayload(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload
}

func optionalTime(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

var _ usecase.OutboxRepository = (*OutboxRepository)(nil)
