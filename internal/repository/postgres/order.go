package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
)

const orderColumns = `
	id, customer_id, service_id, worker_id,
	scheduled_at, duration_minutes, status,
	total_amount, notes, created_at, updated_at
`

// conflictQuery selects occupying bookings of a worker whose half-open
// slot [scheduled_at, scheduled_at + duration) intersects [$2, $3).
// Bookings without a fixed slot are excluded.
const conflictQuery = `
	SELECT ` + orderColumns + `
	FROM orders
	WHERE worker_id = $1
	AND status IN ('pending', 'confirmed', 'in_progress')
	AND scheduled_at IS NOT NULL
	AND duration_minutes IS NOT NULL
	AND scheduled_at < $3
	AND scheduled_at + make_interval(mins => duration_minutes) > $2
	ORDER BY scheduled_at ASC
`

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		order.ServiceID,
		order.WorkerID,
		order.ScheduledAt,
		order.DurationMinutes,
		order.Status,
		order.TotalAmount,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// CreateScheduled closes the check-then-act race: it takes a per-worker
// advisory lock for the life of the transaction, re-runs the conflict
// query, and only then inserts. A losing writer gets ErrSlotTaken.
func (r *orderRepository) CreateScheduled(ctx context.Context, order *model.Order) error {
	start, end, ok := order.Slot()
	if !ok {
		return fmt.Errorf("order has no fixed slot")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serializes booking writers per worker; readers are unaffected.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text))`,
		order.WorkerID.String(),
	); err != nil {
		return fmt.Errorf("failed to acquire worker lock: %w", err)
	}

	var conflict bool
	existsQuery := `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE worker_id = $1
			AND status IN ('pending', 'confirmed', 'in_progress')
			AND scheduled_at IS NOT NULL
			AND duration_minutes IS NOT NULL
			AND scheduled_at < $3
			AND scheduled_at + make_interval(mins => duration_minutes) > $2
		)
	`
	if err := tx.GetContext(ctx, &conflict, existsQuery, order.WorkerID, start, end); err != nil {
		return fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return repository.ErrSlotTaken
	}

	insert := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.ExecContext(ctx, insert,
		order.ID,
		order.CustomerID,
		order.ServiceID,
		order.WorkerID,
		order.ScheduledAt,
		order.DurationMinutes,
		order.Status,
		order.TotalAmount,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create scheduled order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filters *model.OrderFilters) ([]*model.Order, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.CustomerID != nil {
		where += fmt.Sprintf(" AND customer_id = $%d", argCount)
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.WorkerID != nil {
		where += fmt.Sprintf(" AND worker_id = $%d", argCount)
		args = append(args, *filters.WorkerID)
		argCount++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + where + " ORDER BY created_at DESC"
	if filters.PageSize > 0 {
		offset := 0
		if filters.Page > 1 {
			offset = (filters.Page - 1) * filters.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.PageSize, offset)
	}

	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + orderColumns

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, status, time.Now(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + orderColumns

	var order model.Order
	err := r.db.GetContext(ctx, &order, query, to, time.Now(), id, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *orderRepository) FindConflicts(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, conflictQuery, workerID, start, end); err != nil {
		return nil, fmt.Errorf("failed to find conflicting orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var status model.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
