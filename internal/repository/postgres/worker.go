package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/handyhub/booking-api/internal/model"
	"github.com/handyhub/booking-api/internal/repository"
)

const workerColumns = `
	id, name, email, phone, avatar_url, skills, role, created_at, updated_at
`

func (r *workerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM users WHERE id = $1 AND role = $2`

	var worker model.Worker
	err := r.db.GetContext(ctx, &worker, query, id, model.RoleWorker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context, skillFilter string) ([]*model.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM users WHERE role = $1`
	args := []interface{}{model.RoleWorker}

	// Skills are stored as a JSON tag list; matching is a case-sensitive
	// substring check, which covers both plain text and JSON membership.
	if skillFilter != "" {
		query += ` AND skills LIKE '%' || $2 || '%'`
		args = append(args, skillFilter)
	}
	query += ` ORDER BY name ASC`

	var workers []*model.Worker
	if err := r.db.SelectContext(ctx, &workers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	return workers, nil
}

func (r *workerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role = $1`, model.RoleWorker)
	if err != nil {
		return 0, fmt.Errorf("failed to count workers: %w", err)
	}
	return count, nil
}
