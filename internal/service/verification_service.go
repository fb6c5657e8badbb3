package service

import (
	"context"
	"errors"
	"time"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/repository"
	"ticket-booking-engine/internal/token"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/metrics"

	"github.com/google/uuid"
)

// VerificationStatus is the tri-state outcome of a ticket check. Callers
// must distinguish a forged token from a ticket that is signed correctly
// but no longer usable.
type VerificationStatus string

const (
	VerificationValid        VerificationStatus = "valid"
	VerificationInvalidToken VerificationStatus = "invalid-token"
	VerificationInvalidState VerificationStatus = "invalid-state"
)

// TicketSummary is returned to the check-in surface on a valid ticket.
type TicketSummary struct {
	BookingReference string    `json:"booking_reference"`
	EventName        string    `json:"event_name"`
	EventStartsAt    time.Time `json:"event_starts_at"`
	CustomerName     string    `json:"customer_name"`
	Quantity         int       `json:"quantity"`
	TicketType       string    `json:"ticket_type"`
}

type VerificationService interface {
	// VerifyPayload checks a scanned QR payload.
	VerifyPayload(ctx context.Context, encoded string) (VerificationStatus, *TicketSummary, error)
	// VerifyBooking checks a booking directly by id, using its stored token.
	VerifyBooking(ctx context.Context, bookingID uuid.UUID) (VerificationStatus, *TicketSummary, error)
}

type VerificationServiceImpl struct {
	bookings repository.BookingRepository
	events   repository.EventRepository
	tokens   *token.Generator
}

func NewVerificationService(
	bookings repository.BookingRepository,
	events repository.EventRepository,
	tokens *token.Generator,
) VerificationService {
	return &VerificationServiceImpl{
		bookings: bookings,
		events:   events,
		tokens:   tokens,
	}
}

func (s *VerificationServiceImpl) VerifyPayload(ctx context.Context, encoded string) (VerificationStatus, *TicketSummary, error) {
	payload, err := token.Decode(encoded)
	if err != nil {
		metrics.BookingOperations.WithLabelValues("verify", "invalid-token").Inc()
		return VerificationInvalidToken, nil, nil
	}

	// Recompute from the claimed ids; any altered byte in the payload
	// breaks the comparison.
	if !s.tokens.Check(payload) {
		metrics.BookingOperations.WithLabelValues("verify", "invalid-token").Inc()
		return VerificationInvalidToken, nil, nil
	}

	booking, err := s.bookings.FindByBookingID(ctx, payload.BookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			// Signature matched but the booking is gone, likely archived
			// out or signed under another environment's secret.
			metrics.BookingOperations.WithLabelValues("verify", "invalid-state").Inc()
			return VerificationInvalidState, nil, nil
		}
		return "", nil, err
	}

	if booking.UserID != payload.UserID {
		metrics.BookingOperations.WithLabelValues("verify", "invalid-token").Inc()
		return VerificationInvalidToken, nil, nil
	}

	return s.checkState(ctx, booking)
}

func (s *VerificationServiceImpl) VerifyBooking(ctx context.Context, bookingID uuid.UUID) (VerificationStatus, *TicketSummary, error) {
	booking, err := s.bookings.FindByBookingID(ctx, bookingID)
	if err != nil {
		return "", nil, err
	}

	if booking.QRToken == nil || *booking.QRToken != s.tokens.Token(booking.BookingID, booking.UserID) {
		metrics.BookingOperations.WithLabelValues("verify", "invalid-token").Inc()
		return VerificationInvalidToken, nil, nil
	}

	return s.checkState(ctx, booking)
}

// checkState validates that a correctly-signed ticket is still usable:
// booking confirmed and the owning event not cancelled.
func (s *VerificationServiceImpl) checkState(ctx context.Context, booking *model.Booking) (VerificationStatus, *TicketSummary, error) {
	event, err := s.events.FindByID(ctx, booking.EventID)
	if err != nil {
		return "", nil, err
	}

	if booking.Status != model.BookingStatusConfirmed || event.Status == model.EventStatusCancelled {
		metrics.BookingOperations.WithLabelValues("verify", "invalid-state").Inc()
		return VerificationInvalidState, nil, nil
	}

	metrics.BookingOperations.WithLabelValues("verify", "valid").Inc()
	return VerificationValid, &TicketSummary{
		BookingReference: booking.BookingReference,
		EventName:        event.Name,
		EventStartsAt:    event.StartsAt,
		CustomerName:     booking.CustomerName,
		Quantity:         booking.Quantity,
		TicketType:       string(booking.TicketType),
	}, nil
}
