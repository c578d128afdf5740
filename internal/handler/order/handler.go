package order

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/handler"
	"github.com/handyhub/booking-api/internal/middleware"
	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/service/order"
	apperrors "github.com/handyhub/booking-api/pkg/errors"
	"github.com/handyhub/booking-api/pkg/httputil"
	"github.com/handyhub/booking-api/pkg/metrics"
)

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
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/status/:status", h.ListOrdersByStatus)
		orders.PUT("/:id/status", h.UpdateOrderStatus)
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.CreateOrder(c.Request.Context(), customerID, &req)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrWorkerUnavailable) {
			h.metrics.BookingConflicts.Inc()
		}
		c.Error(err)
		return
	}

	h.metrics.BookingsCreated.WithLabelValues(strconv.FormatBool(created.WorkerID != nil)).Inc()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetOrder(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid order ID"))
		return
	}

	found, err := h.service.GetOrder(c.Request.Context(), id, customerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// ListOrders returns the caller's own orders, newest first.
func (h *Handler) ListOrders(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	filters := &model.OrderFilters{
		CustomerID: &customerID,
		Page:       parseIntQuery(c, "page", 1),
		PageSize:   parseIntQuery(c, "page_size", 20),
	}
	if status := c.Query("status"); status != "" {
		s := model.OrderStatus(status)
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

func (h *Handler) ListOrdersByStatus(c *gin.Context) {
	customerID, ok := callerID(c)
	if !ok {
		return
	}

	status := model.OrderStatus(c.Param("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid status"))
		return
	}

	filters := &model.OrderFilters{
		CustomerID: &customerID,
		Status:     &status,
		Page:       parseIntQuery(c, "page", 1),
		PageSize:   parseIntQuery(c, "page_size", 20),
	}

	orders, total, err := h.service.ListOrders(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		httputil.NewPaginatedResponse(orders, filters.Page, filters.PageSize, total)))
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
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

	updated, err := h.service.TransitionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	h.metrics.StatusTransitions.WithLabelValues(string(updated.Status), "false").Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user identity"))
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
