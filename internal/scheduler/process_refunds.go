package scheduler

import (
	"context"
	"errors"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/pricing"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const JobProcessRefunds = "process_refund_requests"

// ProcessRefundsJob settles cancelled bookings flagged as awaiting refund.
// The policy is evaluated against the time remaining to the event at the
// moment of cancellation, so reruns are deterministic.
type ProcessRefundsJob struct {
	pool     *pgxpool.Pool
	bookings repository.BookingRepository
	events   repository.EventRepository
	notifyQ  queue.NotificationQueue
	booking  config.BookingConfig
	cfg      config.SchedulerConfig
}

func NewProcessRefundsJob(
	pool *pgxpool.Pool,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	notifyQ queue.NotificationQueue,
	booking config.BookingConfig,
	cfg config.SchedulerConfig,
) *ProcessRefundsJob {
	return &ProcessRefundsJob{
		pool:     pool,
		bookings: bookings,
		events:   events,
		notifyQ:  notifyQ,
		booking:  booking,
		cfg:      cfg,
	}
}

func (j *ProcessRefundsJob) Name() string            { return JobProcessRefunds }
func (j *ProcessRefundsJob) Interval() time.Duration { return j.cfg.RefundInterval }

func (j *ProcessRefundsJob) Run(ctx context.Context) error {
	awaiting, err := j.bookings.ListAwaitingRefund(ctx, j.cfg.BatchSize)
	if err != nil {
		return err
	}

	log := logger.WithComponent("scheduler").With(zap.String("job", j.Name()))

	for _, booking := range awaiting {
		if err := j.processOne(ctx, booking); err != nil {
			if errors.Is(err, apperrors.ErrInvalidTransition) {
				metrics.SchedulerProcessed.WithLabelValues(j.Name(), "raced").Inc()
				continue
			}
			metrics.SchedulerProcessed.WithLabelValues(j.Name(), "error").Inc()
			log.Error("failed to process refund",
				zap.Int("booking_id", booking.ID),
				zap.String("booking_reference", booking.BookingReference),
				zap.Error(err),
			)
			continue
		}
		metrics.SchedulerProcessed.WithLabelValues(j.Name(), "refunded").Inc()
	}

	return nil
}

func (j *ProcessRefundsJob) processOne(ctx context.Context, booking *model.Booking) error {
	event, err := j.events.FindByID(ctx, booking.EventID)
	if err != nil {
		return err
	}

	untilEvent := time.Duration(0)
	if booking.CancelledAt != nil {
		untilEvent = event.StartsAt.Sub(*booking.CancelledAt)
	}

	decision := pricing.Evaluate(pricing.PolicyName(j.booking.RefundPolicy),
		booking.TotalAmountCents, untilEvent, j.booking.FlatFeeCapCents)

	tx, err := j.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	processed, err := j.bookings.MarkRefundProcessed(ctx, tx, booking.ID,
		decision.RefundCents, decision.FeeCents)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	n := &model.Notification{
		Kind:             model.NotificationRefundProcessed,
		BookingID:        processed.BookingID,
		BookingReference: processed.BookingReference,
		Recipient:        processed.CustomerEmail,
		EventName:        event.Name,
		OccurredAt:       time.Now().UTC(),
	}
	if perr := j.notifyQ.Publish(ctx, n); perr != nil {
		logger.WithComponent("scheduler").Warn("failed to publish refund notification",
			zap.String("booking_reference", processed.BookingReference),
			zap.Error(perr),
		)
	}

	return nil
}
