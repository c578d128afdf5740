package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	apperrors "github.com/handyhub/booking-api/pkg/errors"
)

// Service evaluates whether a worker can accept a booking for a time
// window. It is a point-in-time read; the write path re-validates inside
// its own transaction, so results here may go stale without harm.
type Service struct {
	workers repository.WorkerRepository
	orders  repository.OrderRepository
}

func NewService(workers repository.WorkerRepository, orders repository.OrderRepository) *Service {
	return &Service{workers: workers, orders: orders}
}

// IsAvailable reports whether the worker can take a booking at the given
// window. A nil scheduledAt means general availability, which is always
// true for an existing worker. A missing or non-WORKER user is reported
// as unavailable rather than an error.
func (s *Service) IsAvailable(ctx context.Context, workerID uuid.UUID, scheduledAt *time.Time, durationMinutes *int) (bool, error) {
	if durationMinutes != nil && *durationMinutes <= 0 {
		return false, apperrors.InvalidSchedule("duration_minutes must be positive")
	}

	if _, err := s.workers.Get(ctx, workerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve worker: %w", err)
	}

	if scheduledAt == nil {
		return true, nil
	}

	duration := model.DefaultDurationMinutes
	if durationMinutes != nil {
		duration = *durationMinutes
	}
	end := scheduledAt.Add(time.Duration(duration) * time.Minute)

	conflicts, err := s.orders.FindConflicts(ctx, workerID, *scheduledAt, end)
	if err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return len(conflicts) == 0, nil
}
