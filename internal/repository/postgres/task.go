package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

type taskRepository struct {
	*BaseRepository
}

func NewTaskRepository(base *BaseRepository) repository.TaskRepository {
	return &taskRepository{BaseRepository: base}
}

func (r *taskRepository) Create(ctx context.Context, task *model.ScheduledTask) error {
	query := `
		INSERT INTO scheduled_tasks (
			id, name, initiative_id, run_at, status, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	task.ID = uuid.New()
	task.Status = model.TaskStatusPending
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Name,
		task.InitiativeID,
		task.RunAt,
		task.Status,
		task.Attempts,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetDueWithLock(ctx context.Context, now time.Time, limit int) ([]*model.ScheduledTask, error) {
	query := `
		SELECT id, name, initiative_id, run_at, status, attempts, last_error, created_at, updated_at
		FROM scheduled_tasks
		WHERE status = 'pending'
		AND run_at <= $1
		ORDER BY run_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var tasks []*model.ScheduledTask
	err := r.db.SelectContext(ctx, &tasks, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE scheduled_tasks
		SET status = 'completed', updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}
	return nil
}

func (r *taskRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	query := `
		UPDATE scheduled_tasks
		SET status = 'failed', last_error = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task failed: %w", err)
	}
	return nil
}

func (r *taskRepository) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error {
	query := `
		UPDATE scheduled_tasks
		SET run_at = $1, attempts = attempts + 1, last_error = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, runAt, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reschedule task: %w", err)
	}
	return nil
}

func (r *taskRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM scheduled_tasks WHERE status = 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return count, nil
}
