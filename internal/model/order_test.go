package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusInProgress, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusConfirmed, OrderStatusInProgress, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusCompleted, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusInProgress, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatesAreSticky(t *testing.T) {
	all := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled,
	}
	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, next := range all {
			assert.False(t, terminal.CanTransitionTo(next),
				"%s must not transition to %s", terminal, next)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOccupyingStatuses(t *testing.T) {
	assert.True(t, OrderStatusPending.Occupying())
	assert.True(t, OrderStatusConfirmed.Occupying())
	assert.True(t, OrderStatusInProgress.Occupying())
	assert.False(t, OrderStatusCompleted.Occupying())
	assert.False(t, OrderStatusCancelled.Occupying())
}

func TestOrderSlot(t *testing.T) {
	workerID := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	dur := 120

	order := &Order{WorkerID: &workerID, ScheduledAt: &at, DurationMinutes: &dur}
	start, end, ok := order.Slot()
	assert.True(t, ok)
	assert.Equal(t, at, start)
	assert.Equal(t, at.Add(2*time.Hour), end)

	// Bookings without a fixed slot have no timeline footprint.
	_, _, ok = (&Order{WorkerID: &workerID, ScheduledAt: &at}).Slot()
	assert.False(t, ok)
	_, _, ok = (&Order{WorkerID: &workerID, DurationMinutes: &dur}).Slot()
	assert.False(t, ok)
	_, _, ok = (&Order{ScheduledAt: &at, DurationMinutes: &dur}).Slot()
	assert.False(t, ok)
}

func TestOrderOccupies(t *testing.T) {
	workerID := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) // [10:00, 12:00)
	dur := 120
	order := &Order{
		WorkerID:        &workerID,
		ScheduledAt:     &at,
		DurationMinutes: &dur,
		Status:          OrderStatusConfirmed,
	}

	// Overlapping window.
	assert.True(t, order.Occupies(at.Add(time.Hour), at.Add(3*time.Hour)))
	// Adjacent half-open windows do not collide.
	assert.False(t, order.Occupies(at.Add(2*time.Hour), at.Add(3*time.Hour)))
	assert.False(t, order.Occupies(at.Add(-time.Hour), at))
	// Contained window.
	assert.True(t, order.Occupies(at.Add(30*time.Minute), at.Add(time.Hour)))

	// Non-occupying statuses never block.
	order.Status = OrderStatusCancelled
	assert.False(t, order.Occupies(at, at.Add(time.Hour)))
}
