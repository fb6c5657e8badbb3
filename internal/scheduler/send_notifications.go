package scheduler

import (
	"context"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"go.uber.org/zap"
)

const (
	JobSendConfirmations = "send_pending_confirmations"
	JobSendReminders     = "send_event_reminders"
)

// SendConfirmationsJob dispatches the confirmation message for bookings
// that were confirmed but not yet notified. The conditional claim of
// confirmation_sent_at makes dispatch exactly-once; no inventory is
// touched.
type SendConfirmationsJob struct {
	bookings repository.BookingRepository
	notifyQ  queue.NotificationQueue
	cfg      config.SchedulerConfig
}

func NewSendConfirmationsJob(
	bookings repository.BookingRepository,
	notifyQ queue.NotificationQueue,
	cfg config.SchedulerConfig,
) *SendConfirmationsJob {
	return &SendConfirmationsJob{
		bookings: bookings,
		notifyQ:  notifyQ,
		cfg:      cfg,
	}
}

func (j *SendConfirmationsJob) Name() string            { return JobSendConfirmations }
func (j *SendConfirmationsJob) Interval() time.Duration { return j.cfg.NotifyInterval }

func (j *SendConfirmationsJob) Run(ctx context.Context) error {
	unsent, err := j.bookings.ListUnsentConfirmations(ctx, j.cfg.BatchSize)
	if err != nil {
		return err
	}

	log := logger.WithComponent("scheduler").With(zap.String("job", j.Name()))

	for _, booking := range unsent {
		claimed, err := j.bookings.ClaimConfirmationSent(ctx, booking.ID)
		if err != nil {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to claim confirmation",
				zap.Int("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !claimed {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "raced").Inc()
			continue
		}

		n := &model.Notification{
			Kind:             model.NotificationBookingConfirmed,
			BookingID:        booking.BookingID,
			BookingReference: booking.BookingReference,
			Recipient:        booking.CustomerEmail,
			OccurredAt:       time.Now().UTC(),
		}
		if err := j.notifyQ.Publish(ctx, n); err != nil {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to publish confirmation",
				zap.String("booking_reference", booking.BookingReference), zap.Error(err))
			continue
		}
		metrics.SchedulerProcessed.WithLabelValues(j.Name(), "sent").Inc()
	}

	return nil
}

// SendRemindersJob notifies holders of confirmed bookings whose event
// starts within the next day.
type SendRemindersJob struct {
	bookings repository.BookingRepository
	notifyQ  queue.NotificationQueue
	cfg      config.SchedulerConfig
}

func NewSendRemindersJob(
	bookings repository.BookingRepository,
	notifyQ queue.NotificationQueue,
	cfg config.SchedulerConfig,
) *SendRemindersJob {
	return &SendRemindersJob{
		bookings: bookings,
		notifyQ:  notifyQ,
		cfg:      cfg,
	}
}

func (j *SendRemindersJob) Name() string            { return JobSendReminders }
func (j *SendRemindersJob) Interval() time.Duration { return j.cfg.ReminderInterval }

func (j *SendRemindersJob) Run(ctx context.Context) error {
	startsBefore := time.Now().UTC().Add(24 * time.Hour)
	due, err := j.bookings.ListDueReminders(ctx, startsBefore, j.cfg.BatchSize)
	if err != nil {
		return err
	}

	log := logger.WithComponent("scheduler").With(zap.String("job", j.Name()))

	for _, booking := range due {
		claimed, err := j.bookings.ClaimReminderSent(ctx, booking.ID)
		if err != nil {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to claim reminder",
				zap.Int("booking_id", booking.ID), zap.Error(err))
			continue
		}
		if !claimed {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "raced").Inc()
			continue
		}

		n := &model.Notification{
			Kind:             model.NotificationEventReminder,
			BookingID:        booking.BookingID,
			BookingReference: booking.BookingReference,
			Recipient:        booking.CustomerEmail,
			OccurredAt:       time.Now().UTC(),
		}
		if err := j.notifyQ.Publish(ctx, n); err != nil {
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to publish reminder",
				zap.String("booking_reference", booking.BookingReference), zap.Error(err))
			continue
		}
		metrics.SchedulerProcessed.WithLabelValues(j.Name(), "sent").Inc()
	}

	return nil
}
