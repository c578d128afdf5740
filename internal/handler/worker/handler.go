package worker

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/handler"
	"github.com/handyhub/booking-api/internal/service/worker"
)

type Handler struct {
	service *worker.Service
}

func NewHandler(service *worker.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	workers := r.Group("/workers")
	{
		workers.GET("", h.ListWorkers)
		workers.GET("/:id", h.GetWorker)
	}
}

// ListWorkers returns the worker directory, optionally filtered by skill
// and annotated with availability for a requested window.
func (h *Handler) ListWorkers(c *gin.Context) {
	skill := c.Query("skill")

	var scheduledAt *time.Time
	if raw := c.Query("scheduled_at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("scheduled_at must be RFC 3339"))
			return
		}
		scheduledAt = &t
	}

	var durationMinutes *int
	if raw := c.Query("duration_minutes"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("duration_minutes must be an integer"))
			return
		}
		durationMinutes = &d
	}

	result, err := h.service.ListWorkersWithAvailability(c.Request.Context(), skill, scheduledAt, durationMinutes)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetWorker(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid worker ID"))
		return
	}

	found, err := h.service.GetWorker(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}
