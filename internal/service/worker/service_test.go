package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	apperrors "github.com/handyhub/booking-api/pkg/errors"
)

type fakeDirectory struct {
	workers []*model.Worker
}

func (d *fakeDirectory) Get(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	for _, w := range d.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (d *fakeDirectory) List(_ context.Context, skillFilter string) ([]*model.Worker, error) {
	if skillFilter == "" {
		return d.workers, nil
	}
	var out []*model.Worker
	for _, w := range d.workers {
		if strings.Contains(w.Skills, skillFilter) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Count(_ context.Context) (int64, error) {
	return int64(len(d.workers)), nil
}

// busyChecker marks a fixed set of workers unavailable whenever a window
// is supplied.
type busyChecker struct {
	busy map[uuid.UUID]bool
}

func (c *busyChecker) IsAvailable(_ context.Context, workerID uuid.UUID, scheduledAt *time.Time, _ *int) (bool, error) {
	if scheduledAt == nil {
		return true, nil
	}
	return !c.busy[workerID], nil
}

func newTestService() (*Service, *fakeDirectory, *busyChecker) {
	plumber := &model.Worker{ID: uuid.New(), Name: "Pat", Skills: `["plumbing","heating"]`, Role: model.RoleWorker}
	electrician := &model.Worker{ID: uuid.New(), Name: "Eli", Skills: `["electrical"]`, Role: model.RoleWorker}
	dir := &fakeDirectory{workers: []*model.Worker{plumber, electrician}}
	checker := &busyChecker{busy: map[uuid.UUID]bool{electrician.ID: true}}
	return NewService(dir, checker), dir, checker
}

func TestListWorkersFiltersBySkill(t *testing.T) {
	svc, dir, _ := newTestService()
	ctx := context.Background()

	all, err := svc.ListWorkers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	plumbers, err := svc.ListWorkers(ctx, "plumbing")
	require.NoError(t, err)
	require.Len(t, plumbers, 1)
	assert.Equal(t, dir.workers[0].ID, plumbers[0].ID)

	none, err := svc.ListWorkers(ctx, "roofing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListWorkersWithAvailabilityDecorates(t *testing.T) {
	svc, dir, _ := newTestService()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	dur := 60

	listed, err := svc.ListWorkersWithAvailability(context.Background(), "", &at, &dur)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	byID := map[uuid.UUID]bool{}
	for _, w := range listed {
		byID[w.ID] = w.Available
	}
	assert.True(t, byID[dir.workers[0].ID])
	assert.False(t, byID[dir.workers[1].ID])
}

func TestListWorkersWithAvailabilityNoWindowIsGeneral(t *testing.T) {
	svc, _, _ := newTestService()

	listed, err := svc.ListWorkersWithAvailability(context.Background(), "", nil, nil)
	require.NoError(t, err)
	for _, w := range listed {
		assert.True(t, w.Available, "general availability must be true for %s", w.Name)
	}
}

func TestGetWorker(t *testing.T) {
	svc, dir, _ := newTestService()
	ctx := context.Background()

	got, err := svc.GetWorker(ctx, dir.workers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat", got.Name)

	_, err = svc.GetWorker(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrWorkerNotFound))
}
