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

func newRefundJob(q *recordingQueue) *scheduler.ProcessRefundsJob {
	cfg := config.LoadTestConfig()
	return scheduler.NewProcessRefundsJob(
		testDB,
		repository.NewBookingRepository(testDB),
		repository.NewEventRepository(testDB),
		q,
		cfg.Booking,
		cfg.Scheduler,
	)
}

func TestProcessRefundsJob(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	bookings := repository.NewBookingRepository(testDB)

	// Event in 72h, cancelled now: well outside the 24h window, full refund.
	eventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(72*time.Hour), 10, 2)
	full := createTestBooking(t, eventID, model.BookingStatusConfirmed, 2, time.Now().Add(-time.Hour))
	markAwaitingRefund(t, full, time.Now())

	// Cancelled 10h before the event start: half refund, half withheld.
	lateEventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(10*time.Hour), 10, 2)
	partial := createTestBooking(t, lateEventID, model.BookingStatusConfirmed, 2, time.Now().Add(-time.Hour))
	markAwaitingRefund(t, partial, time.Now())

	q := &recordingQueue{}
	job := newRefundJob(q)

	require.NoError(t, job.Run(ctx))

	t.Run("full refund settles to refunded", func(t *testing.T) {
		booking, err := bookings.FindByID(ctx, full)
		require.NoError(t, err)

		assert.Equal(t, model.BookingStatusRefunded, booking.Status)
		assert.Equal(t, int64(10000), booking.RefundAmountCents)
		assert.Equal(t, int64(0), booking.CancellationFeeCents)
		require.NotNil(t, booking.RefundProcessedAt)
		assert.False(t, booking.AwaitingRefund)
	})

	t.Run("partial refund withholds the fee", func(t *testing.T) {
		booking, err := bookings.FindByID(ctx, partial)
		require.NoError(t, err)

		assert.Equal(t, model.BookingStatusRefunded, booking.Status)
		assert.Equal(t, int64(5000), booking.RefundAmountCents)
		assert.Equal(t, int64(5000), booking.CancellationFeeCents)
	})

	t.Run("a refund notice goes out per settled booking", func(t *testing.T) {
		kinds := q.kinds()
		require.Len(t, kinds, 2)
		for _, kind := range kinds {
			assert.Equal(t, model.NotificationRefundProcessed, kind)
		}
	})

	t.Run("a second pass finds nothing to settle", func(t *testing.T) {
		require.NoError(t, job.Run(ctx))
		assert.Len(t, q.kinds(), 2)
	})
}
