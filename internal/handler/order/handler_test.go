package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handyhub/booking-api/internal/middleware"
	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
	orderService "github.com/handyhub/booking-api/internal/service/order"
	"github.com/handyhub/booking-api/pkg/logger"
	"github.com/handyhub/booking-api/pkg/metrics"
)

var (
	setupOnce   sync.Once
	testMetrics *metrics.Metrics
)

func setupPackage() {
	setupOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
				return model.OrderStatus(fl.Field().String()).Valid()
			})
		}
		testMetrics = metrics.New("order_handler_test")
	})
}

type memStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[uuid.UUID]*model.Order)}
}

func (s *memStore) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memStore) CreateScheduled(_ context.Context, o *model.Order) error {
	start, end, ok := o.Slot()
	if !ok {
		return repository.ErrSlotTaken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.WorkerID != nil && *existing.WorkerID == *o.WorkerID && existing.Occupies(start, end) {
			return repository.ErrSlotTaken
		}
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) List(_ context.Context, f *model.OrderFilters) ([]*model.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Order
	for _, o := range s.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (s *memStore) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return nil, repository.ErrNotFound
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *memStore) FindConflicts(_ context.Context, workerID uuid.UUID, start, end time.Time) ([]*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Order
	for _, o := range s.orders {
		if o.WorkerID != nil && *o.WorkerID == workerID && o.Occupies(start, end) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) CountByStatus(_ context.Context) (map[model.OrderStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.OrderStatus]int64)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

type stubDirectory struct {
	workers map[uuid.UUID]*model.Worker
}

func (d *stubDirectory) Get(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	if w, ok := d.workers[id]; ok {
		return w, nil
	}
	return nil, repository.ErrNotFound
}

func (d *stubDirectory) List(_ context.Context, _ string) ([]*model.Worker, error) {
	return nil, nil
}

func (d *stubDirectory) Count(_ context.Context) (int64, error) {
	return int64(len(d.workers)), nil
}

type stubCatalog struct {
	services map[uuid.UUID]*model.Service
}

func (c *stubCatalog) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	if svc, ok := c.services[id]; ok {
		return svc, nil
	}
	return nil, repository.ErrNotFound
}

func (c *stubCatalog) Count(_ context.Context) (int64, error) {
	return int64(len(c.services)), nil
}

type testServer struct {
	engine    *gin.Engine
	store     *memStore
	callerID  uuid.UUID
	workerID  uuid.UUID
	serviceID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	setupPackage()

	ts := &testServer{
		store:     newMemStore(),
		callerID:  uuid.New(),
		workerID:  uuid.New(),
		serviceID: uuid.New(),
	}

	directory := &stubDirectory{workers: map[uuid.UUID]*model.Worker{
		ts.workerID: {ID: ts.workerID, Name: "Ada", Role: model.RoleWorker},
	}}
	catalog := &stubCatalog{services: map[uuid.UUID]*model.Service{
		ts.serviceID: {ID: ts.serviceID, Name: "Deep Clean", BasePrice: 80, Active: true},
	}}

	log := logger.New(logger.Config{Output: io.Discard})
	svc := orderService.NewService(ts.store, directory, catalog, nil, log)

	engine := gin.New()
	engine.Use(middleware.ErrorHandler(log))
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, ts.callerID.String())
		c.Next()
	})
	NewHandler(svc, testMetrics).RegisterRoutes(engine.Group("/api/v1"))

	ts.engine = engine
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) *model.Order {
	t.Helper()
	var body struct {
		Data *model.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data)
	return body.Data
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": ts.serviceID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeOrder(t, w)
	assert.Equal(t, model.OrderStatusPending, created.Status)
	assert.Equal(t, ts.callerID, created.CustomerID)
	assert.Equal(t, 80.0, created.TotalAmount)
}

func TestCreateOrderUnknownServiceIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestCreateOrderUnknownWorkerIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"service_id": ts.serviceID,
		"worker_id":  uuid.New(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestCreateOrderConflictIsRejected(t *testing.T) {
	ts := newTestServer(t)
	slot := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)

	first := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"service_id":   ts.serviceID,
		"worker_id":    ts.workerID,
		"scheduled_at": slot,
	})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"service_id":   ts.serviceID,
		"worker_id":    ts.workerID,
		"scheduled_at": slot,
	})
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())
}

func TestCreateOrderNonPositiveDurationIsBadRequest(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"service_id":       ts.serviceID,
		"worker_id":        ts.workerID,
		"scheduled_at":     time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"duration_minutes": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestUpdateOrderStatusFollowsStateMachine(t *testing.T) {
	ts := newTestServer(t)

	created := decodeOrder(t, ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": ts.serviceID}))

	w := ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/orders/%s/status", created.ID), gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.OrderStatusConfirmed, decodeOrder(t, w).Status)

	// pending -> completed skips the machine and must be rejected
	fresh := decodeOrder(t, ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": ts.serviceID}))
	w = ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/orders/%s/status", fresh.ID), gin.H{"status": "completed"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	ts := newTestServer(t)

	created := decodeOrder(t, ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": ts.serviceID}))

	w := ts.do(t, http.MethodPut, fmt.Sprintf("/api/v1/orders/%s/status", created.ID), gin.H{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	ts := newTestServer(t)

	foreign := &model.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		ServiceID:  ts.serviceID,
		Status:     model.OrderStatusPending,
	}
	require.NoError(t, ts.store.Create(context.Background(), foreign))

	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s", foreign.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestListOrdersReturnsOnlyOwn(t *testing.T) {
	ts := newTestServer(t)

	decodeOrder(t, ts.do(t, http.MethodPost, "/api/v1/orders", gin.H{"service_id": ts.serviceID}))
	foreign := &model.Order{ID: uuid.New(), CustomerID: uuid.New(), ServiceID: ts.serviceID, Status: model.OrderStatusPending}
	require.NoError(t, ts.store.Create(context.Background(), foreign))

	w := ts.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Data       []*model.Order `json:"data"`
			Pagination struct {
				Total int64 `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Data, 1)
	assert.Equal(t, ts.callerID, body.Data.Data[0].CustomerID)
	assert.Equal(t, int64(1), body.Data.Pagination.Total)
}
