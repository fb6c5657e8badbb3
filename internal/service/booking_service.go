package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-booking-engine/config"
	"ticket-booking-engine/internal/cache"
	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/pricing"
	"ticket-booking-engine/internal/queue"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/internal/token"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"
	"ticket-booking-engine/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BookingService interface {
	Create(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, actorID uuid.UUID) (*model.Booking, error)
	QRPayload(ctx context.Context, bookingID uuid.UUID) (string, error)
}

type BookingServiceImpl struct {
	pool       *pgxpool.Pool
	bookings   repository.BookingRepository
	events     repository.EventRepository
	tokens     *token.Generator
	notifyQ    queue.NotificationQueue
	statsCache cache.StatsCache
	cfg        config.BookingConfig
}

func NewBookingService(
	pool *pgxpool.Pool,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	tokens *token.Generator,
	notifyQ queue.NotificationQueue,
	statsCache cache.StatsCache,
	cfg config.BookingConfig,
) BookingService {
	return &BookingServiceImpl{
		pool:       pool,
		bookings:   bookings,
		events:     events,
		tokens:     tokens,
		notifyQ:    notifyQ,
		statsCache: statsCache,
		cfg:        cfg,
	}
}

// Create validates the event, computes the price and persists the booking
// as pending while consuming inventory. The availability check and the
// increment are one conditional UPDATE inside the same transaction as the
// insert, so two concurrent requests near the capacity boundary can never
// jointly oversell.
func (s *BookingServiceImpl) Create(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if req.Quantity < 1 || !req.TicketType.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}

	event, err := s.events.FindByEventID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if event.Status != model.EventStatusActive {
		return nil, apperrors.ErrEventNotActive
	}
	if !event.StartsAt.After(now) {
		return nil, apperrors.ErrEventStarted
	}

	unitPrice, err := pricing.UnitPriceCents(event.BasePriceCents, req.TicketType)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		BookingID:        uuid.New(),
		BookingReference: newBookingReference(now),
		EventID:          event.ID,
		UserID:           req.UserID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		Quantity:         req.Quantity,
		TicketType:       req.TicketType,
		UnitPriceCents:   unitPrice,
		TotalAmountCents: pricing.TotalAmountCents(unitPrice, req.Quantity),
		Status:           model.BookingStatusPending,
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := s.bookings.Create(ctx, tx, booking)
	if err != nil {
		return nil, err
	}

	if err := s.events.ReserveTickets(ctx, tx, event.ID, req.Quantity); err != nil {
		if errors.Is(err, apperrors.ErrCapacityExceeded) {
			// The guard failed; re-read inside the tx to report the
			// actionable cause.
			return nil, s.classifyReserveFailure(ctx, tx, event.ID, req.Quantity)
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.BookingOperations.WithLabelValues("create", "ok").Inc()
	s.invalidateStats(ctx, event.OrganizerID, req.UserID)

	return created, nil
}

func (s *BookingServiceImpl) classifyReserveFailure(ctx context.Context, tx pgx.Tx, eventID int, quantity int) error {
	event, err := s.events.FindByIDTx(ctx, tx, eventID)
	if err != nil {
		return err
	}
	if event.Status != model.EventStatusActive {
		return apperrors.ErrEventNotActive
	}
	return fmt.Errorf("only %d tickets left, requested %d: %w",
		event.AvailableTickets(), quantity, apperrors.ErrCapacityExceeded)
}

func (s *BookingServiceImpl) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return s.bookings.FindByBookingID(ctx, bookingID)
}

func (s *BookingServiceImpl) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	return s.bookings.FindByReference(ctx, reference)
}

func (s *BookingServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Booking, error) {
	return s.bookings.ListByUserID(ctx, userID)
}

// Confirm moves a pending booking to confirmed and stores the verification
// token. The transition is conditional on the booking still being pending,
// so a race with the expiration job leaves exactly one winner.
func (s *BookingServiceImpl) Confirm(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	qrToken := s.tokens.Token(booking.BookingID, booking.UserID)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	confirmed, err := s.bookings.ConfirmIfPending(ctx, tx, booking.ID, qrToken)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.BookingOperations.WithLabelValues("confirm", "ok").Inc()

	event, err := s.events.FindByID(ctx, confirmed.EventID)
	if err == nil {
		s.invalidateStats(ctx, event.OrganizerID, confirmed.UserID)
	}

	return confirmed, nil
}

// Cancel executes a user- or organizer-initiated cancellation. Pending
// bookings cancel unconditionally (no payment was finalized); confirmed
// bookings go through the refund policy evaluator first.
func (s *BookingServiceImpl) Cancel(ctx context.Context, bookingID uuid.UUID, actorID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		return nil, apperrors.ErrAlreadyTerminal
	}

	event, err := s.events.FindByID(ctx, booking.EventID)
	if err != nil {
		return nil, err
	}

	reason := model.CancelReasonUser
	switch actorID {
	case booking.UserID:
	case event.OrganizerID:
		reason = model.CancelReasonOrganizer
	default:
		return nil, apperrors.ErrUnauthorized
	}

	var params repository.CancelParams
	switch booking.Status {
	case model.BookingStatusPending:
		params = repository.CancelParams{Reason: reason}
	case model.BookingStatusConfirmed:
		untilEvent := time.Until(event.StartsAt)

		if untilEvent < 0 {
			return nil, fmt.Errorf("event already started: %w", apperrors.ErrPolicyDenied)
		}
		if window := time.Duration(s.cfg.MinCancelHours) * time.Hour; window > 0 && untilEvent < window {
			return nil, fmt.Errorf("cannot cancel within %d hours of the event: %w",
				s.cfg.MinCancelHours, apperrors.ErrPolicyDenied)
		}

		decision := pricing.Evaluate(pricing.PolicyName(s.cfg.RefundPolicy),
			booking.TotalAmountCents, untilEvent, s.cfg.FlatFeeCapCents)
		if decision.Tier == pricing.RefundTierDenied {
			return nil, fmt.Errorf("refund window has closed: %w", apperrors.ErrPolicyDenied)
		}

		params = repository.CancelParams{
			Reason:         reason,
			RefundCents:    decision.RefundCents,
			FeeCents:       decision.FeeCents,
			AwaitingRefund: decision.RefundCents > 0,
		}
	default:
		return nil, apperrors.ErrInvalidTransition
	}

	cancelled, err := s.cancelTx(ctx, booking, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			// Lost the race against the scheduler or another caller;
			// report what the booking became.
			current, ferr := s.bookings.FindByID(ctx, booking.ID)
			if ferr == nil && current.Status.IsTerminal() {
				return nil, apperrors.ErrAlreadyTerminal
			}
		}
		return nil, err
	}

	metrics.BookingOperations.WithLabelValues("cancel", "ok").Inc()
	s.invalidateStats(ctx, event.OrganizerID, booking.UserID)
	s.publishNotification(ctx, &model.Notification{
		Kind:             model.NotificationBookingCancelled,
		BookingID:        cancelled.BookingID,
		BookingReference: cancelled.BookingReference,
		Recipient:        cancelled.CustomerEmail,
		EventName:        event.Name,
		OccurredAt:       time.Now().UTC(),
	})

	return cancelled, nil
}

// cancelTx applies the conditional status flip and the inventory release
// as one atomic unit.
func (s *BookingServiceImpl) cancelTx(ctx context.Context, booking *model.Booking, params repository.CancelParams) (*model.Booking, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cancelled, err := s.bookings.CancelIfStatus(ctx, tx, booking.ID, booking.Status, params)
	if err != nil {
		return nil, err
	}

	if err := s.events.ReleaseTickets(ctx, tx, booking.EventID, booking.Quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return cancelled, nil
}

// QRPayload returns the encoded QR payload of a confirmed booking.
func (s *BookingServiceImpl) QRPayload(ctx context.Context, bookingID uuid.UUID) (string, error) {
	booking, err := s.bookings.FindByBookingID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.Status != model.BookingStatusConfirmed || booking.QRToken == nil {
		return "", apperrors.ErrInvalidTransition
	}
	return token.Encode(token.QRPayload{
		BookingID: booking.BookingID,
		UserID:    booking.UserID,
		Token:     *booking.QRToken,
	})
}

// Notification dispatch must never block or fail a booking operation.
func (s *BookingServiceImpl) publishNotification(ctx context.Context, n *model.Notification) {
	if err := s.notifyQ.Publish(ctx, n); err != nil {
		logger.WithComponent("service").Warn("failed to publish notification",
			zap.String("booking_reference", n.BookingReference),
			zap.Error(err),
		)
	}
}

func (s *BookingServiceImpl) invalidateStats(ctx context.Context, organizerID, userID uuid.UUID) {
	if err := s.statsCache.Invalidate(ctx, organizerID, userID); err != nil {
		logger.WithComponent("service").Warn("failed to invalidate stats cache",
			zap.String("organizer_id", organizerID.String()),
			zap.Error(err),
		)
	}
}
