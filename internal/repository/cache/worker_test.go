package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
)

type countingDirectory struct {
	workers map[uuid.UUID]*model.Worker
	gets    int
}

func (d *countingDirectory) Get(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	d.gets++
	if w, ok := d.workers[id]; ok {
		return w, nil
	}
	return nil, repository.ErrNotFound
}

func (d *countingDirectory) List(context.Context, string) ([]*model.Worker, error) {
	return nil, nil
}

func (d *countingDirectory) Count(context.Context) (int64, error) {
	return int64(len(d.workers)), nil
}

func TestGetCachesHits(t *testing.T) {
	id := uuid.New()
	dir := &countingDirectory{workers: map[uuid.UUID]*model.Worker{
		id: {ID: id, Name: "Ann", Role: model.RoleWorker},
	}}
	repo := NewWorkerRepository(dir, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		w, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ann", w.Name)
	}
	assert.Equal(t, 1, dir.gets, "only the first lookup should hit the directory")
}

func TestGetDoesNotCacheMisses(t *testing.T) {
	dir := &countingDirectory{workers: map[uuid.UUID]*model.Worker{}}
	repo := NewWorkerRepository(dir, time.Minute)
	id := uuid.New()

	ctx := context.Background()
	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// A worker created after the miss must become visible.
	dir.workers[id] = &model.Worker{ID: id, Name: "Bo", Role: model.RoleWorker}
	w, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bo", w.Name)
}
