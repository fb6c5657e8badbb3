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

func TestSendConfirmationsJob(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	cfg := config.LoadTestConfig().Scheduler
	bookings := repository.NewBookingRepository(testDB)

	eventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(48*time.Hour), 10, 4)
	confirmed := createTestBooking(t, eventID, model.BookingStatusConfirmed, 2, time.Now())
	createTestBooking(t, eventID, model.BookingStatusPending, 2, time.Now())

	q := &recordingQueue{}
	job := scheduler.NewSendConfirmationsJob(bookings, q, cfg)

	require.NoError(t, job.Run(ctx))

	t.Run("confirmation goes out once", func(t *testing.T) {
		assert.Equal(t, []model.NotificationKind{model.NotificationBookingConfirmed}, q.kinds())

		booking, err := bookings.FindByID(ctx, confirmed)
		require.NoError(t, err)
		assert.NotNil(t, booking.ConfirmationSentAt)
	})

	t.Run("rerun does not send again", func(t *testing.T) {
		require.NoError(t, job.Run(ctx))
		assert.Len(t, q.kinds(), 1)
	})
}

func TestSendRemindersJob(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	cfg := config.LoadTestConfig().Scheduler
	bookings := repository.NewBookingRepository(testDB)

	soonEventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(12*time.Hour), 10, 2)
	farEventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(72*time.Hour), 10, 2)

	due := createTestBooking(t, soonEventID, model.BookingStatusConfirmed, 2, time.Now())
	createTestBooking(t, farEventID, model.BookingStatusConfirmed, 2, time.Now())

	q := &recordingQueue{}
	job := scheduler.NewSendRemindersJob(bookings, q, cfg)

	require.NoError(t, job.Run(ctx))

	t.Run("only imminent events trigger reminders", func(t *testing.T) {
		assert.Equal(t, []model.NotificationKind{model.NotificationEventReminder}, q.kinds())

		booking, err := bookings.FindByID(ctx, due)
		require.NoError(t, err)
		assert.NotNil(t, booking.ReminderSentAt)
	})

	t.Run("rerun does not send again", func(t *testing.T) {
		require.NoError(t, job.Run(ctx))
		assert.Len(t, q.kinds(), 1)
	})
}

func TestSchedulerRunJob(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	cfg := config.LoadTestConfig().Scheduler
	bookings := repository.NewBookingRepository(testDB)

	eventID := createTestEvent(t, model.EventStatusActive, time.Now().Add(48*time.Hour), 10, 2)
	confirmed := createTestBooking(t, eventID, model.BookingStatusConfirmed, 2, time.Now())

	q := &recordingQueue{}
	sched := scheduler.New(false, scheduler.NewSendConfirmationsJob(bookings, q, cfg))

	t.Run("named job runs on demand", func(t *testing.T) {
		require.NoError(t, sched.RunJob(ctx, scheduler.JobSendConfirmations))

		booking, err := bookings.FindByID(ctx, confirmed)
		require.NoError(t, err)
		assert.NotNil(t, booking.ConfirmationSentAt)
	})

	t.Run("unknown job name is an error", func(t *testing.T) {
		assert.Error(t, sched.RunJob(ctx, "no_such_job"))
	})
}
