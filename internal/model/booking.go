package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRefunded  BookingStatus = "refunded"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the booking no longer holds inventory and
// cannot leave its state (refunded is reached only from cancelled).
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusRefunded
}

// HoldsInventory reports whether a booking in this state contributes its
// quantity to the event's tickets_sold counter.
func (s BookingStatus) HoldsInventory() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransitionTo checks a lifecycle transition against the state machine.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCancelled},
		BookingStatusCancelled: {BookingStatusRefunded},
		BookingStatusRefunded:  {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// TicketType selects the price multiplier applied to the event base price.
type TicketType string

const (
	TicketTypeGeneral   TicketType = "general"
	TicketTypeVIP       TicketType = "vip"
	TicketTypePremium   TicketType = "premium"
	TicketTypeEarlyBird TicketType = "early_bird"
)

func (t TicketType) IsValid() bool {
	switch t {
	case TicketTypeGeneral, TicketTypeVIP, TicketTypePremium, TicketTypeEarlyBird:
		return true
	}
	return false
}

// CancelReason records why a booking left a ticket-holding state.
type CancelReason string

const (
	CancelReasonUser      CancelReason = "user_requested"
	CancelReasonOrganizer CancelReason = "organizer_requested"
	CancelReasonExpired   CancelReason = "expired"
)

// Booking is a reservation of quantity tickets against one event.
// Monetary amounts are integer cents.
type Booking struct {
	ID               int           `json:"id" db:"id"`
	BookingID        uuid.UUID     `json:"booking_id" db:"booking_id"`
	BookingReference string        `json:"booking_reference" db:"booking_reference"`
	EventID          int           `json:"event_id" db:"event_id"`
	UserID           uuid.UUID     `json:"user_id" db:"user_id"`
	CustomerName     string        `json:"customer_name" db:"customer_name"`
	CustomerEmail    string        `json:"customer_email" db:"customer_email"`
	Quantity         int           `json:"quantity" db:"quantity"`
	TicketType       TicketType    `json:"ticket_type" db:"ticket_type"`
	UnitPriceCents   int64         `json:"unit_price_cents" db:"unit_price_cents"`
	TotalAmountCents int64         `json:"total_amount_cents" db:"total_amount_cents"`
	Status           BookingStatus `json:"status" db:"status"`
	CancelReason     *CancelReason `json:"cancel_reason,omitempty" db:"cancel_reason"`

	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	RefundProcessedAt *time.Time `json:"refund_processed_at,omitempty" db:"refund_processed_at"`

	RefundAmountCents     int64 `json:"refund_amount_cents" db:"refund_amount_cents"`
	CancellationFeeCents  int64 `json:"cancellation_fee_cents" db:"cancellation_fee_cents"`
	AwaitingRefund        bool  `json:"awaiting_refund" db:"awaiting_refund"`

	QRToken            *string    `json:"-" db:"qr_token"`
	ConfirmationSentAt *time.Time `json:"confirmation_sent_at,omitempty" db:"confirmation_sent_at"`
	ReminderSentAt     *time.Time `json:"reminder_sent_at,omitempty" db:"reminder_sent_at"`

	Archived  bool      `json:"archived" db:"archived"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest is the inbound contract of the booking state machine.
type CreateBookingRequest struct {
	EventID       uuid.UUID  `json:"event_id" binding:"required"`
	UserID        uuid.UUID  `json:"user_id" binding:"required"`
	CustomerName  string     `json:"customer_name" binding:"required"`
	CustomerEmail string     `json:"customer_email" binding:"required,email"`
	Quantity      int        `json:"quantity" binding:"required,min=1"`
	TicketType    TicketType `json:"ticket_type" binding:"required"`
}

// CancelBookingRequest identifies the actor requesting the cancellation.
// Authorization is owner-or-organizer; the HTTP layer has already
// authenticated the actor id.
type CancelBookingRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}

type BookingResponse struct {
	BookingID            uuid.UUID `json:"booking_id"`
	BookingReference     string    `json:"booking_reference"`
	EventID              uuid.UUID `json:"event_id"`
	Quantity             int       `json:"quantity"`
	TicketType           string    `json:"ticket_type"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	TotalAmountCents     int64     `json:"total_amount_cents"`
	Status               string    `json:"status"`
	RefundAmountCents    int64     `json:"refund_amount_cents"`
	CancellationFeeCents int64     `json:"cancellation_fee_cents"`
	CreatedAt            time.Time `json:"created_at"`
}
