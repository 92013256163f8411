package memory

import (
	"context"
	"sort"
	"time"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository in memory.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stores an event inside tx.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	t, err := activeTx(r.store, tx)
	if err != nil {
		return err
	}

	r.store.outbox[event.ID] = *event
	t.onRollback(func() { delete(r.store.outbox, event.ID) })

	return nil
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent

	err := r.store.view(ctx, func() error {
		events = paginate(r.filter(func(e *domain.OutboxEvent) bool { return !e.Published }), limit, 0)
		return nil
	})

	return events, err
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.view(ctx, func() error {
		event, ok := r.store.outbox[id]
		if !ok {
			return nil
		}

		event.Published = true
		event.PublishedAt = &publishedAt
		r.store.outbox[id] = event

		return nil
	})
}

// DeletePublished removes events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.view(ctx, func() error {
		for id, e := range r.store.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				delete(r.store.outbox, id)
			}
		}
		return nil
	})
}

func (r *OutboxRepository) filter(keep func(*domain.OutboxEvent) bool) []*domain.OutboxEvent {
	var events []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		e := e
		if keep(&e) {
			events = append(events, &e)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	return events
}

var _ usecase.OutboxRepository = (*OutboxRepository)(nil)
