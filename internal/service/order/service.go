package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	apperrors "github.com/handyhub/booking-api/pkg/errors"
	"github.com/handyhub/booking-api/pkg/logger"
)

// EventEmitter records integration events for asynchronous publishing.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Service owns the booking lifecycle: creation gated by worker
// availability, and status transitions under the order state machine.
type Service struct {
	orders  repository.OrderRepository
	workers repository.WorkerRepository
	catalog repository.ServiceRepository
	events  EventEmitter
	logger  *logger.Logger
}

func NewService(
	orders repository.OrderRepository,
	workers repository.WorkerRepository,
	catalog repository.ServiceRepository,
	events EventEmitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		orders:  orders,
		workers: workers,
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// CreateOrder creates a booking for the customer. When a worker and a
// schedule are both given, the slot is validated atomically with the
// insert, so two racing requests can never double-book a worker.
func (s *Service) CreateOrder(ctx context.Context, customerID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, apperrors.InvalidSchedule("duration_minutes must be positive")
	}

	svc, err := s.catalog.Get(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ServiceNotFound(err)
		}
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}

	now := time.Now()
	order := &model.Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		ServiceID:       req.ServiceID,
		WorkerID:        req.WorkerID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          model.OrderStatusPending,
		TotalAmount:     svc.BasePrice,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.ScheduledAt != nil && order.DurationMinutes == nil {
		d := model.DefaultDurationMinutes
		order.DurationMinutes = &d
	}

	if req.WorkerID != nil {
		if _, err := s.workers.Get(ctx, *req.WorkerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.WorkerNotFound(err)
			}
			return nil, fmt.Errorf("failed to resolve worker: %w", err)
		}
	}

	if req.WorkerID != nil && req.ScheduledAt != nil {
		err = s.orders.CreateScheduled(ctx, order)
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.WorkerUnavailable()
		}
	} else {
		// Unassigned or unscheduled bookings occupy no timeline.
		err = s.orders.Create(ctx, order)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.emit(ctx, model.EventOrderCreated, order)
	return order, nil
}

// GetOrder returns the order when it belongs to the customer. Orders of
// other customers are reported as not found, not forbidden.
func (s *Service) GetOrder(ctx context.Context, id, customerID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.CustomerID != customerID {
		return nil, apperrors.NotFound("order", nil)
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error) {
	orders, total, err := s.orders.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionStatus moves the order along the lifecycle state machine.
// Availability is not re-checked: the slot was reserved at creation time.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, newStatus model.OrderStatus) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.InvalidStatus(fmt.Sprintf("unknown status %q", newStatus))
	}

	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidStatus(
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, newStatus))
	}

	// Compare-and-set against the status just read, so a racing
	// transition that commits first cannot be silently overwritten.
	updated, err := s.orders.UpdateStatusFrom(ctx, id, order.Status, newStatus)
	if errors.Is(err, repository.ErrNotFound) {
		current, gerr := s.orders.Get(ctx, id)
		if errors.Is(gerr, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", gerr)
		}
		if gerr != nil {
			return nil, fmt.Errorf("failed to get order: %w", gerr)
		}
		return nil, apperrors.InvalidStatus(
			fmt.Sprintf("cannot transition order from %s to %s", current.Status, newStatus))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.emit(ctx, model.EventOrderStatusChanged, updated)
	return updated, nil
}

// ForceSetStatus is the administrative overwrite. It bypasses the state
// machine but still rejects statuses outside the enum.
func (s *Service) ForceSetStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidStatus(fmt.Sprintf("unknown status %q", status))
	}

	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("order", err)
		}
		return nil, fmt.Errorf("failed to set order status: %w", err)
	}

	s.emit(ctx, model.EventOrderStatusChanged, updated)
	return updated, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.orders.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("order", err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// Stats aggregates order counts for the administrative dashboard.
func (s *Service) Stats(ctx context.Context) (*model.OrderStats, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	workers, err := s.workers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}
	services, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count services: %w", err)
	}

	stats := &model.OrderStats{
		TotalWorkers:     workers,
		TotalServices:    services,
		PendingOrders:    counts[model.OrderStatusPending],
		ConfirmedOrders:  counts[model.OrderStatusConfirmed],
		InProgressOrders: counts[model.OrderStatusInProgress],
		CompletedOrders:  counts[model.OrderStatusCompleted],
		CancelledOrders:  counts[model.OrderStatusCancelled],
	}
	for _, n := range counts {
		stats.TotalOrders += n
	}
	return stats, nil
}

// emit failures are logged, never surfaced: the booking itself committed.
func (s *Service) emit(ctx context.Context, eventType string, order *model.Order) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, order); err != nil {
		s.logger.Error(err, "failed to emit event",
			"event_type", eventType, "order_id", order.ID.String())
	}
}
