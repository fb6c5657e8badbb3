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

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("bookings", h.CreateBooking)
		router.GET("bookings/:id", h.GetBooking)
		router.PUT("bookings/:id/confirm", h.ConfirmBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
		router.GET("bookings/:id/qr", h.GetBookingQR)
		router.GET("users/:user_id/bookings", h.ListUserBookings)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.Create(c, req)
	if err != nil {
		h.handleBookingError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.service.GetByBookingID(c, id)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	bookings, err := h.service.ListByUser(c, userID)
	if err != nil {
		h.handleBookingError(c, err, "ListUserBookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	confirmed, err := h.service.Confirm(c, id)
	if err != nil {
		h.handleBookingError(c, err, "ConfirmBooking")
		return
	}

	c.JSON(http.StatusOK, confirmed)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	var req model.CancelBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	cancelled, err := h.service.Cancel(c, id, req.ActorID)
	if err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":                cancelled,
		"refund_amount_cents":    cancelled.RefundAmountCents,
		"cancellation_fee_cents": cancelled.CancellationFeeCents,
	})
}

func (h *BookingHandler) GetBookingQR(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	payload, err := h.service.QRPayload(c, id)
	if err != nil {
		h.handleBookingError(c, err, "GetBookingQR")
		return
	}

	c.JSON(http.StatusOK, gin.H{"qr_payload": payload})
}

// Helper functions

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		log.Warn("Capacity exceeded")
		// err carries the tickets-left detail.
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrEventNotActive):
		log.Warn("Event not active")
		c.JSON(http.StatusConflict, gin.H{"error": "Event is not open for booking"})
	case errors.Is(err, apperrors.ErrEventStarted):
		log.Warn("Event already started")
		c.JSON(http.StatusConflict, gin.H{"error": "Event has already started"})
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Warn("Invalid transition")
		c.JSON(http.StatusConflict, gin.H{"error": "Booking is not in a state that allows this operation"})
	case errors.Is(err, apperrors.ErrAlreadyTerminal):
		log.Warn("Already terminal")
		c.JSON(http.StatusConflict, gin.H{"error": "Booking is already cancelled or refunded"})
	case errors.Is(err, apperrors.ErrPolicyDenied):
		log.Warn("Policy denied")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		log.Warn("Unauthorized actor")
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to modify this booking"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
