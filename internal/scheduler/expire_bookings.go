package scheduler

import (
	"context"
	"errors"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/cache"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const JobExpireBookings = "expire_abandoned_bookings"

// ExpireBookingsJob cancels pending bookings whose payment was abandoned
// and returns their tickets to the pool. The per-booking transition is
// conditional on the booking still being pending, so racing against a
// just-completed confirm turns this into a no-op.
type ExpireBookingsJob struct {
	pool       *pgxpool.Pool
	bookings   repository.BookingRepository
	events     repository.EventRepository
	notifyQ    queue.NotificationQueue
	statsCache cache.StatsCache
	cfg        config.SchedulerConfig
}

func NewExpireBookingsJob(
	pool *pgxpool.Pool,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	notifyQ queue.NotificationQueue,
	statsCache cache.StatsCache,
	cfg config.SchedulerConfig,
) *ExpireBookingsJob {
	return &ExpireBookingsJob{
		pool:       pool,
		bookings:   bookings,
		events:     events,
		notifyQ:    notifyQ,
		statsCache: statsCache,
		cfg:        cfg,
	}
}

func (j *ExpireBookingsJob) Name() string            { return JobExpireBookings }
func (j *ExpireBookingsJob) Interval() time.Duration { return j.cfg.ExpireInterval }

func (j *ExpireBookingsJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.cfg.PendingTimeout)
	expired, err := j.bookings.ListExpiredPending(ctx, cutoff, j.cfg.BatchSize)
	if err != nil {
		return err
	}

	log := logger.WithComponent("scheduler").With(zap.String("job", j.Name()))

	for _, booking := range expired {
		if err := j.expireOne(ctx, booking); err != nil {
			if errors.Is(err, apperrors.ErrInvalidTransition) {
				// The booking was confirmed or cancelled between the scan
				// and the conditional update; nothing to do.
				metrics.SchedulerProcessed.WithLabelValues(j.Name(), "raced").Inc()
				continue
			}
			// One bad unit never aborts the scan.
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to expire booking",
				zap.Int("booking_id", booking.ID),
				zap.String("booking_reference", booking.BookingReference),
				zap.Error(err),
			)
			continue
		}
		metrics.SchedulerProcessed.WithLabelValues(j.Name(), "expired").Inc()
	}

	return nil
}

func (j *ExpireBookingsJob) expireOne(ctx context.Context, booking *model.Booking) error {
	tx, err := j.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cancelled, err := j.bookings.CancelIfStatus(ctx, tx, booking.ID, model.BookingStatusPending,
		repository.CancelParams{Reason: model.CancelReasonExpired})
	if err != nil {
		return err
	}

	if err := j.events.ReleaseTickets(ctx, tx, booking.EventID, booking.Quantity); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	event, err := j.events.FindByID(ctx, cancelled.EventID)
	if err == nil {
		if cerr := j.statsCache.Invalidate(ctx, event.OrganizerID, cancelled.UserID); cerr != nil {
			logger.WithComponent("scheduler").Warn("stats invalidation failed", zap.Error(cerr))
		}
	}

	n := &model.Notification{
		Kind:             model.NotificationBookingCancelled,
		BookingID:        cancelled.BookingID,
		BookingReference: cancelled.BookingReference,
		Recipient:        cancelled.CustomerEmail,
		OccurredAt:       time.Now().UTC(),
	}
	if event != nil {
		n.EventName = event.Name
	}
	if perr := j.notifyQ.Publish(ctx, n); perr != nil {
		logger.WithComponent("scheduler").Warn("failed to publish expiry notification",
			zap.String("booking_reference", cancelled.BookingReference),
			zap.Error(perr),
		)
	}

	return nil
}
