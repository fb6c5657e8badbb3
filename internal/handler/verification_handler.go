package handler

import (
	"errors"
	"net/http"

	"ticket-booking-engine/internal/service"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerificationHandler is the check-in surface: it distinguishes forged
// tickets from tickets that are signed correctly but no longer usable.
type VerificationHandler struct {
	service service.VerificationService
}

func NewVerificationHandler(service service.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

func (h *VerificationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("tickets/verify", h.VerifyTicket)
	}
}

type verifyTicketBody struct {
	QRPayload string `json:"qr_payload"`
	BookingID string `json:"booking_id"`
}

func (h *VerificationHandler) VerifyTicket(c *gin.Context) {
	var body verifyTicketBody
	if err := BindJson(c, &body); err != nil {
		return
	}

	var (
		status  service.VerificationStatus
		summary *service.TicketSummary
		err     error
	)

	switch {
	case body.QRPayload != "":
		status, summary, err = h.service.VerifyPayload(c, body.QRPayload)
	case body.BookingID != "":
		id, perr := uuid.Parse(body.BookingID)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
			return
		}
		status, summary, err = h.service.VerifyBooking(c, id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either qr_payload or booking_id is required"})
		return
	}

	if err != nil {
		log := logger.WithComponent("handler").With(zap.String("operation", "VerifyTicket"), zap.Error(err))
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			log.Warn("Booking not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := gin.H{"status": status}
	if summary != nil {
		resp["ticket"] = summary
	}
	c.JSON(http.StatusOK, resp)
}
