package queue

import (
	"context"
	"testing"
	"time"

	"ticket-booking-engine/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueuePublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryNotificationQueue(4)

	n := &model.Notification{
		Kind:      model.NotificationBookingConfirmed,
		BookingID: uuid.New(),
		Recipient: "customer@test.com",
	}
	require.NoError(t, q.Publish(ctx, n))

	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.Equal(t, n.BookingID, d.Data.BookingID)
		assert.Equal(t, model.NotificationBookingConfirmed, d.Data.Kind)
		d.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected a delivery")
	}
}

func TestMemoryQueueNackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryNotificationQueue(4)
	n := &model.Notification{Kind: model.NotificationEventReminder, BookingID: uuid.New()}
	require.NoError(t, q.Publish(ctx, n))

	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	first := <-deliveries
	first.Nack(true)

	select {
	case second := <-deliveries:
		assert.Equal(t, n.BookingID, second.Data.BookingID)
		second.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected the nacked delivery to come back")
	}
}

func TestMemoryQueuePublishBlockedByCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewMemoryNotificationQueue(1)
	require.NoError(t, q.Publish(ctx, &model.Notification{BookingID: uuid.New()}))

	cancel()
	err := q.Publish(ctx, &model.Notification{BookingID: uuid.New()})
	assert.ErrorIs(t, err, context.Canceled)
}
