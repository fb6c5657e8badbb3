package handler

import (
	"errors"
	"net/http"

	"ticket-booking-engine/internal/model"
	"ticket-booking-engine/internal/service"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("events", h.GetEvents)
		router.GET("events/:id", h.GetEvent)
		router.POST("events", h.CreateEvent)
		router.PUT("events/:id", h.UpdateEvent)
	}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		h.handleEventError(c, err, "GetEvents")
		return
	}

	responses := make([]model.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, model.NewEventResponse(event))
	}

	c.JSON(http.StatusOK, responses)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
		return
	}

	event, err := h.service.GetByEventID(c, id)
	if err != nil {
		h.handleEventError(c, err, "GetEvent")
		return
	}

	c.JSON(http.StatusOK, model.NewEventResponse(event))
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Create(c, req)
	if err != nil {
		h.handleEventError(c, err, "CreateEvent")
		return
	}

	c.JSON(http.StatusCreated, model.NewEventResponse(created))
}

type updateEventBody struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Status      *model.EventStatus `json:"status"`
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
		return
	}

	var body updateEventBody
	if err := BindJson(c, &body); err != nil {
		return
	}

	updated, err := h.service.UpdateByEventID(c, id, model.UpdateEventParams{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		h.handleEventError(c, err, "UpdateEvent")
		return
	}

	c.JSON(http.StatusOK, model.NewEventResponse(updated))
}

func (h *EventHandler) handleEventError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
