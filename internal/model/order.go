package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// DefaultDurationMinutes is applied when a booking carries a schedule but
// no explicit duration.
const DefaultDurationMinutes = 120

// orderTransitions is the lifecycle state machine. Completed and cancelled
// orders have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Occupying reports whether an order in this status counts toward a
// worker's time occupancy.
func (s OrderStatus) Occupying() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	CustomerID      uuid.UUID   `db:"customer_id" json:"customer_id"`
	ServiceID       uuid.UUID   `db:"service_id" json:"service_id"`
	WorkerID        *uuid.UUID  `db:"worker_id" json:"worker_id,omitempty"`
	ScheduledAt     *time.Time  `db:"scheduled_at" json:"scheduled_at,omitempty"`
	DurationMinutes *int        `db:"duration_minutes" json:"duration_minutes,omitempty"`
	Status          OrderStatus `db:"status" json:"status"`
	TotalAmount     float64     `db:"total_amount" json:"total_amount"`
	Notes           string      `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// Slot returns the half-open interval [start, end) this order occupies on
// its worker's timeline. ok is false when the order has no fixed slot
// (no worker, no schedule, or no duration).
func (o *Order) Slot() (start, end time.Time, ok bool) {
	if o.WorkerID == nil || o.ScheduledAt == nil || o.DurationMinutes == nil {
		return time.Time{}, time.Time{}, false
	}
	start = *o.ScheduledAt
	end = start.Add(time.Duration(*o.DurationMinutes) * time.Minute)
	return start, end, true
}

// Occupies reports whether the order blocks [start, end) on its worker's
// timeline. Intervals are half-open, so adjacent bookings do not collide.
func (o *Order) Occupies(start, end time.Time) bool {
	if !o.Status.Occupying() {
		return false
	}
	s, e, ok := o.Slot()
	if !ok {
		return false
	}
	return s.Before(end) && start.Before(e)
}

type CreateOrderRequest struct {
	ServiceID       uuid.UUID  `json:"service_id" binding:"required"`
	WorkerID        *uuid.UUID `json:"worker_id"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	Notes           string     `json:"notes" binding:"max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,orderstatus"`
}

type OrderFilters struct {
	CustomerID *uuid.UUID
	WorkerID   *uuid.UUID
	Status     *OrderStatus
	Page       int
	PageSize   int
}

// OrderStats is the administrative dashboard summary.
type OrderStats struct {
	TotalOrders      int64 `json:"total_orders"`
	TotalWorkers     int64 `json:"total_workers"`
	TotalServices    int64 `json:"total_services"`
	PendingOrders    int64 `json:"pending_orders"`
	ConfirmedOrders  int64 `json:"confirmed_orders"`
	InProgressOrders int64 `json:"in_progress_orders"`
	CompletedOrders  int64 `json:"completed_orders"`
	CancelledOrders  int64 `json:"cancelled_orders"`
}
