package worker

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

// AvailabilityChecker is the evaluator used to decorate listings.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, workerID uuid.UUID, scheduledAt *time.Time, durationMinutes *int) (bool, error)
}

// Service lists and filters workers, optionally annotated with an
// availability flag. Pure reads; never mutates the directory.
type Service struct {
	workers      repository.WorkerRepository
	availability AvailabilityChecker
}

func NewService(workers repository.WorkerRepository, availability AvailabilityChecker) *Service {
	return &Service{workers: workers, availability: availability}
}

func (s *Service) GetWorker(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	worker, err := s.workers.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.WorkerNotFound(err)
		}
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return worker, nil
}

// ListWorkers returns WORKER-role users, optionally narrowed by a
// case-sensitive skill fragment. An empty filter returns everyone.
func (s *Service) ListWorkers(ctx context.Context, skillFilter string) ([]*model.Worker, error) {
	workers, err := s.workers.List(ctx, skillFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

// ListWorkersWithAvailability annotates each listed worker with an
// availability flag for the requested window. The flags are a snapshot;
// booking creation re-validates before committing.
func (s *Service) ListWorkersWithAvailability(ctx context.Context, skillFilter string, scheduledAt *time.Time, durationMinutes *int) ([]*model.WorkerAvailability, error) {
	workers, err := s.workers.List(ctx, skillFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}

	result := make([]*model.WorkerAvailability, 0, len(workers))
	for _, w := range workers {
		available, err := s.availability.IsAvailable(ctx, w.ID, scheduledAt, durationMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to check availability for worker %s: %w", w.ID, err)
		}
		result = append(result, &model.WorkerAvailability{Worker: *w, Available: available})
	}
	return result, nil
}
