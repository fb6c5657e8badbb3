package queue

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/test/internal/testutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRdb *redis.Client

func TestMain(m *testing.M) {
	var cleanup func()
	var err error

	testRdb, cleanup, err = testutil.SetupRedisOnly()
	if err != nil {
		log.Printf("skipping queue tests: %v", err)
		os.Exit(0)
	}

	log.Println("Running queue tests...")

	code := m.Run()

	cleanup()
	os.Exit(code)
}

func setupTest(t *testing.T) func() {
	t.Helper()
	if err := testRdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush test redis: %v", err)
	}
	return func() {}
}

func TestRedisStreamQueueDelivery(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q, err := queue.NewRedisStreamNotificationQueue(testRdb, "test-consumer", &queue.RedisStreamQueueConfig{
		ReadGroupBlockTime: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	n := &model.Notification{
		Kind:             model.NotificationBookingConfirmed,
		BookingID:        uuid.New(),
		BookingReference: "BK-260901-TESTREF1",
		Recipient:        "customer@test.com",
		OccurredAt:       time.Now().UTC(),
	}
	require.NoError(t, q.Publish(ctx, n))

	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		require.NotNil(t, d.Data)
		assert.Equal(t, n.BookingID, d.Data.BookingID)
		assert.Equal(t, n.Kind, d.Data.Kind)
		assert.Equal(t, n.BookingReference, d.Data.BookingReference)
		d.Ack()
	case <-ctx.Done():
		t.Fatal("expected a delivery before the timeout")
	}

	// Acked messages leave the pending entries list.
	assert.Eventually(t, func() bool {
		pending, err := testRdb.XPending(context.Background(), queue.StreamKey, queue.ConsumerGroupName).Result()
		return err == nil && pending.Count == 0
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisStreamQueueReclaimAfterNack(t *testing.T) {
	cleanup := setupTest(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg := &queue.RedisStreamQueueConfig{
		ClaimMinIdleTime:   200 * time.Millisecond,
		ReadGroupBlockTime: 200 * time.Millisecond,
	}

	q, err := queue.NewRedisStreamNotificationQueue(testRdb, "test-consumer", cfg)
	require.NoError(t, err)

	n := &model.Notification{
		Kind:      model.NotificationEventReminder,
		BookingID: uuid.New(),
	}
	require.NoError(t, q.Publish(ctx, n))

	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	var first queue.Delivery
	select {
	case first = <-deliveries:
	case <-ctx.Done():
		t.Fatal("expected the first delivery")
	}
	first.Nack(true)

	// The unacked message stays pending and is reclaimed for another attempt.
	select {
	case second := <-deliveries:
		require.NotNil(t, second.Data)
		assert.Equal(t, n.BookingID, second.Data.BookingID)
		second.Ack()
	case <-ctx.Done():
		t.Fatal("expected the message to be redelivered")
	}
}
