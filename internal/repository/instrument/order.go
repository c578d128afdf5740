package instrument

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	"github.com/handyhub/booking-api/pkg/metrics"
)

// orderRepository decorates an OrderRepository with operation counters
// and latency histograms.
type orderRepository struct {
	inner   repository.OrderRepository
	metrics *metrics.Metrics
}

func NewOrderRepository(inner repository.OrderRepository, m *metrics.Metrics) repository.OrderRepository {
	return &orderRepository{inner: inner, metrics: m}
}

func (r *orderRepository) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	start := time.Now()
	err := r.inner.Create(ctx, order)
	r.observe("order_create", start, err)
	return err
}

func (r *orderRepository) CreateScheduled(ctx context.Context, order *model.Order) error {
	start := time.Now()
	err := r.inner.CreateScheduled(ctx, order)
	r.observe("order_create_scheduled", start, err)
	return err
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	start := time.Now()
	order, err := r.inner.Get(ctx, id)
	r.observe("order_get", start, err)
	return order, err
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error) {
	start := time.Now()
	orders, total, err := r.inner.List(ctx, filters)
	r.observe("order_list", start, err)
	return orders, total, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	start := time.Now()
	order, err := r.inner.UpdateStatus(ctx, id, status)
	r.observe("order_update_status", start, err)
	return order, err
}

func (r *orderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	start := time.Now()
	order, err := r.inner.UpdateStatusFrom(ctx, id, from, to)
	r.observe("order_update_status_from", start, err)
	return order, err
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := r.inner.Delete(ctx, id)
	r.observe("order_delete", start, err)
	return err
}

func (r *orderRepository) FindConflicts(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*model.Order, error) {
	begin := time.Now()
	orders, err := r.inner.FindConflicts(ctx, workerID, start, end)
	r.observe("order_find_conflicts", begin, err)
	return orders, err
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	start := time.Now()
	counts, err := r.inner.CountByStatus(ctx)
	r.observe("order_count_by_status", start, err)
	return counts, err
}
