package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherKeysByAggregate(t *testing.T) {
	writer := &fakeWriter{}
	p := newKafkaPublisher(writer, time.Second, zerolog.Nop())

	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: "account",
		EventType:     domain.EventTypeTransactionAdded,
		Payload:       map[string]any{"amount": "20.00"},
		CreatedAt:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, writer.messages, 1)
	assert.True(t, writer.deadline, "expected write to carry a timeout")

	msg := writer.messages[0]
	assert.Equal(t, "acc-1", string(msg.Key))
	assert.Equal(t, domain.EventTypeTransactionAdded, string(msg.Headers[0].Value))

	var body message
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "evt-1", body.ID)
	assert.Equal(t, "20.00", body.Payload["amount"])
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	p := newKafkaPublisher(writer, time.Second, zerolog.Nop())

	err := p.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, writer.err)

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}
