package handler

import (
	"errors"
	"net/http"

	"ticket-booking-engine/internal/scheduler"
	"ticket-booking-engine/internal/service"
	apperrors "ticket-booking-engine/pkg/app_errors"
	"ticket-booking-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler exposes manual triggers for the reconciliation jobs and the
// organizer stats read model.
type AdminHandler struct {
	scheduler *scheduler.Scheduler
	stats     service.StatsService
}

func NewAdminHandler(sched *scheduler.Scheduler, stats service.StatsService) *AdminHandler {
	return &AdminHandler{scheduler: sched, stats: stats}
}

func (h *AdminHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("admin/jobs/:name/run", h.RunJob)
		router.GET("organizers/:id/stats", h.OrganizerStats)
	}
}

func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.scheduler.RunJob(c, name); err != nil {
		logger.WithComponent("handler").Warn("manual job run failed",
			zap.String("job", name), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": name, "triggered": true})
}

func (h *AdminHandler) OrganizerStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organizer id"})
		return
	}

	stats, err := h.stats.OrganizerStats(c, id)
	if err != nil {
		log := logger.WithComponent("handler").With(zap.String("operation", "OrganizerStats"), zap.Error(err))
		if errors.Is(err, apperrors.ErrEventNotFound) {
			log.Warn("Organizer has no events")
			c.JSON(http.StatusNotFound, gin.H{"error": "Organizer not found"})
			return
		}
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
