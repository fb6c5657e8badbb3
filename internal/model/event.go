package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusActive, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// Event carries the per-event ticket inventory. The invariant
// 0 <= TicketsSold <= TotalTickets holds at all times; every mutation of
// TicketsSold goes through a conditional UPDATE in the repository.
type Event struct {
	ID             int         `json:"id" db:"id"`
	EventID        uuid.UUID   `json:"event_id" db:"event_id"`
	OrganizerID    uuid.UUID   `json:"organizer_id" db:"organizer_id"`
	Name           string      `json:"name" db:"name"`
	Description    *string     `json:"description,omitempty" db:"description"`
	Status         EventStatus `json:"status" db:"status"`
	StartsAt       time.Time   `json:"starts_at" db:"starts_at"`
	BasePriceCents int64       `json:"base_price_cents" db:"base_price_cents"`
	TotalTickets   int         `json:"total_tickets" db:"total_tickets"`
	TicketsSold    int         `json:"tickets_sold" db:"tickets_sold"`
	Archived       bool        `json:"archived" db:"archived"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// AvailableTickets derives availability from the canonical counter.
func (e *Event) AvailableTickets() int {
	return e.TotalTickets - e.TicketsSold
}

// IsBookable reports whether new bookings may be created against the event.
func (e *Event) IsBookable(now time.Time) bool {
	return e.Status == EventStatusActive && e.StartsAt.After(now)
}

type CreateEventRequest struct {
	OrganizerID    uuid.UUID `json:"organizer_id" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Description    *string   `json:"description"`
	StartsAt       time.Time `json:"starts_at" binding:"required"`
	BasePriceCents int64     `json:"base_price_cents" binding:"required,min=0"`
	TotalTickets   int       `json:"total_tickets" binding:"required,min=1"`
}

type UpdateEventParams struct {
	Name        *string
	Description *string
	Status      *EventStatus
	StartsAt    *time.Time
}

type EventResponse struct {
	EventID          uuid.UUID `json:"event_id"`
	Name             string    `json:"name"`
	Status           string    `json:"status"`
	StartsAt         time.Time `json:"starts_at"`
	BasePriceCents   int64     `json:"base_price_cents"`
	TotalTickets     int       `json:"total_tickets"`
	TicketsSold      int       `json:"tickets_sold"`
	AvailableTickets int       `json:"available_tickets"`
}

func NewEventResponse(e *Event) EventResponse {
	return EventResponse{
		EventID:          e.EventID,
		Name:             e.Name,
		Status:           string(e.Status),
		StartsAt:         e.StartsAt,
		BasePriceCents:   e.BasePriceCents,
		TotalTickets:     e.TotalTickets,
		TicketsSold:      e.TicketsSold,
		AvailableTickets: e.AvailableTickets(),
	}
}
