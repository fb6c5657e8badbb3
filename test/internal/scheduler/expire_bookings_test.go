package scheduler

import (
	"context"
	"testing"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpireJob(q *recordingQueue) *scheduler.ExpireBookingsJob {
	cfg := config.LoadTestConfig().Scheduler
	return scheduler.NewExpireBookingsJob(
		testDB,
		repository.NewBookingRepository(testDB),
		repository.NewEventRepository(testDB),
		q,
		noopStatsCache{},
		cfg,
	)
}

func TestExpireBookingsJob(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	bookings := repository.NewBookingRepository(testDB)
	events := repository.NewEventRepository(testDB)

	eventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(48*time.Hour), 10, 6)
	stale := createTestBooking(t, eventID, model.BookingStatusPending, 4, time.Now().Add(-11*time.Minute))
	fresh := createTestBooking(t, eventID, model.BookingStatusPending, 2, time.Now())

	q := &recordingQueue{}
	job := newExpireJob(q)

	require.NoError(t, job.Run(ctx))

	t.Run("stale pending booking is cancelled as expired", func(t *testing.T) {
		booking, err := bookings.FindByID(ctx, stale)
		require.NoError(t, err)

		assert.Equal(t, model.BookingStatusCancelled, booking.Status)
		require.NotNil(t, booking.CancelReason)
		assert.Equal(t, model.CancelReasonExpired, *booking.CancelReason)
		assert.False(t, booking.AwaitingRefund)
	})

	t.Run("its tickets return to the pool", func(t *testing.T) {
		event, err := events.FindByID(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 2, event.TicketsSold)
	})

	t.Run("fresh pending booking is untouched", func(t *testing.T) {
		booking, err := bookings.FindByID(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, model.BookingStatusPending, booking.Status)
	})

	t.Run("a cancellation notice was published", func(t *testing.T) {
		assert.Equal(t, []model.NotificationKind{model.NotificationBookingCancelled}, q.kinds())
	})

	t.Run("a second pass changes nothing", func(t *testing.T) {
		require.NoError(t, job.Run(ctx))

		event, err := events.FindByID(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 2, event.TicketsSold)
		assert.Len(t, q.kinds(), 1)
	})
}
