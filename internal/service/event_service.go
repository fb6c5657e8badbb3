package service

import (
	"context"
	"time"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/repository"
	apperrors "ticket-booking-engine/pkg/app_errors"

	"github.com/google/uuid"
)

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
}

type EventServiceImpl struct {
	repo repository.EventRepository
}

func NewEventService(repo repository.EventRepository) EventService {
	return &EventServiceImpl{repo: repo}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

// Create persists a new event in draft; the organizer activates it via an
// update once it should go on sale.
func (s *EventServiceImpl) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	if req.TotalTickets < 1 || req.BasePriceCents < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if !req.StartsAt.After(time.Now().UTC()) {
		return nil, apperrors.ErrInvalidInput
	}

	event := &model.Event{
		EventID:        uuid.New(),
		OrganizerID:    req.OrganizerID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         model.EventStatusDraft,
		StartsAt:       req.StartsAt,
		BasePriceCents: req.BasePriceCents,
		TotalTickets:   req.TotalTickets,
	}

	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, event.ID, params)
}
