package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the template the delivery layer renders; content and
// formatting live outside the engine.
type NotificationKind string

const (
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
	NotificationRefundProcessed  NotificationKind = "refund_processed"
	NotificationEventReminder    NotificationKind = "event_reminder"
)

// Notification is the message published to the notification queue after a
// state-mutating operation. Dispatch is fire-and-forget: failures are
// logged by the worker, never surfaced to the booking caller.
type Notification struct {
	Kind             NotificationKind `json:"kind"`
	BookingID        uuid.UUID        `json:"booking_id"`
	BookingReference string           `json:"booking_reference"`
	Recipient        string           `json:"recipient"`
	EventName        string           `json:"event_name"`
	OccurredAt       time.Time        `json:"occurred_at"`
}
