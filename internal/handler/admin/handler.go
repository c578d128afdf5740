package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/handler"
	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/service/order"
	"github.com/handyhub/booking-api/pkg/httputil"
	"github.com/handyhub/booking-api/pkg/metrics"
)

// Handler exposes the privileged order operations. Routes must be
// registered behind an admin role check.
type Handler struct {
	service *order.Service
	metrics *metrics.Metrics
}

func NewHandler(service *order.Service, metrics *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: metrics}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.PUT("/:id/status", h.ForceSetOrderStatus)
		orders.DELETE("/:id", h.DeleteOrder)
	}
	r.GET("/stats", h.Stats)
}

// ListOrders lists orders across all customers.
func (h *Handler) ListOrders(c *gin.Context) {
	filters := &model.OrderFilters{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
	}

	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid customer ID"))
			return
		}
		filters.CustomerID = &id
	}
	if raw := c.Query("worker_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid worker ID"))
			return
		}
		filters.WorkerID = &id
	}
	if raw := c.Query("status"); raw != "" {
		s := model.OrderStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid status filter"))
			return
		}
		filters.Status = &s
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		httputil.NewPaginatedResponse(orders, filters.Page, filters.PageSize, total)))
}

// ForceSetOrderStatus overwrites an order's status without consulting the
// lifecycle state machine.
func (h *Handler) ForceSetOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.ForceSetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	h.metrics.StatusTransitions.WithLabelValues(string(updated.Status), "true").Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
