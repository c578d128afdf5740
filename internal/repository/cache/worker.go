package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
)

// workerRepository is a read-through cache over the worker directory.
// Worker identity is owned by an external service and changes rarely, so
// a short TTL keeps availability checks from hammering the users table.
type workerRepository struct {
	inner repository.WorkerRepository
	cache *gocache.Cache
}

func NewWorkerRepository(inner repository.WorkerRepository, ttl time.Duration) repository.WorkerRepository {
	return &workerRepository{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *workerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	key := id.String()
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*model.Worker), nil
	}

	worker, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, worker)
	return worker, nil
}

// List results depend on the filter and are not cached.
func (r *workerRepository) List(ctx context.Context, skillFilter string) ([]*model.Worker, error) {
	return r.inner.List(ctx, skillFilter)
}

func (r *workerRepository) Count(ctx context.Context) (int64, error) {
	return r.inner.Count(ctx)
}
