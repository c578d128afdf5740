package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
)

// ErrNotFound is returned when a row does not exist. Services map it onto
// the user-visible error categories.
var ErrNotFound = errors.New("not found")

// ErrSlotTaken is returned by CreateScheduled when the requested window
// conflicts with an occupying booking at commit time.
var ErrSlotTaken = errors.New("time slot already booked")

// WorkerRepository is the read-only worker directory. Only users with the
// WORKER role are visible through it.
type WorkerRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	List(ctx context.Context, skillFilter string) ([]*model.Worker, error)
	Count(ctx context.Context) (int64, error)
}

// ServiceRepository is the read-only catalog lookup.
type ServiceRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Count(ctx context.Context) (int64, error)
}

type OrderRepository interface {
	// Create inserts a booking without slot validation. Used for
	// unassigned or unscheduled bookings, which never conflict.
	Create(ctx context.Context, order *model.Order) error
	// CreateScheduled atomically re-validates the worker's window and
	// inserts. The conflict check and the insert run as one unit so
	// concurrent requests cannot double-book a worker.
	CreateScheduled(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)
	// UpdateStatusFrom sets the status only when the stored status still
	// equals from, closing the read-check-write race between competing
	// transitions. ErrNotFound covers both a missing order and a stale
	// from; callers re-read to tell them apart.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// FindConflicts returns occupying bookings of the worker whose slot
	// intersects the half-open window [start, end).
	FindConflicts(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*model.Order, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
