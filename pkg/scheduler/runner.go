package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/pkg/logger"
	"github.com/khadra/initiative-api/pkg/metrics"
)

// HandlerFunc executes one scheduled task. Handlers must be idempotent:
// the runner delivers at least once and may redeliver after a crash.
type HandlerFunc func(ctx context.Context, initiativeID uuid.UUID) error

type RunnerConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Runner polls the task table for due work and dispatches it to registered
// handlers. A handler error re-queues the task with linear backoff until the
// retry cap, after which the task is marked failed.
type Runner struct {
	repo     repository.TaskRepository
	handlers map[string]HandlerFunc
	config   RunnerConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewRunner(
	repo repository.TaskRepository,
	config RunnerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Runner {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &Runner{
		repo:     repo,
		handlers: make(map[string]HandlerFunc),
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// Register binds a handler to a task name. Must be called before Start.
func (r *Runner) Register(name string, handler HandlerFunc) {
	r.handlers[name] = handler
}

func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	r.logger.Info("starting task runner")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down task runner")
			return
		case <-ticker.C:
			if err := r.processDue(ctx); err != nil {
				r.logger.Error(err, "failed to process due tasks")
			}
		}
	}
}

func (r *Runner) processDue(ctx context.Context) error {
	timer := prometheus.NewTimer(r.metrics.TaskRunLatency)
	defer timer.ObserveDuration()

	now := time.Now()
	tasks, err := r.repo.GetDueWithLock(ctx, now, r.config.BatchSize)
	if err != nil {
		r.metrics.DatabaseOperations.WithLabelValues("get_due_tasks", "error").Inc()
		return fmt.Errorf("failed to get due tasks: %w", err)
	}
	r.metrics.DatabaseOperations.WithLabelValues("get_due_tasks", "success").Inc()

	if pending, err := r.repo.CountPending(ctx); err == nil {
		r.metrics.TaskQueueSize.Set(float64(pending))
	}

	for _, task := range tasks {
		r.metrics.TaskDispatchDelay.WithLabelValues(task.Name).Observe(now.Sub(task.RunAt).Seconds())
		if err := r.runTask(ctx, task); err != nil {
			r.logger.Error(err, "task execution failed",
				"task_id", task.ID.String(),
				"task", task.Name)
		}
	}

	return nil
}

func (r *Runner) runTask(ctx context.Context, task *model.ScheduledTask) error {
	handler, ok := r.handlers[task.Name]
	if !ok {
		errMsg := fmt.Sprintf("no handler registered for task %q", task.Name)
		r.metrics.TasksFailed.Inc()
		return r.repo.MarkFailed(ctx, task.ID, errMsg)
	}

	if err := handler(ctx, task.InitiativeID); err != nil {
		if task.Attempts+1 >= r.config.RetryAttempts {
			r.metrics.TasksFailed.Inc()
			if markErr := r.repo.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
				return markErr
			}
			return err
		}

		r.metrics.TaskRetries.WithLabelValues(task.Name).Inc()
		backoff := time.Duration(task.Attempts+1) * r.config.RetryDelay
		if resErr := r.repo.Reschedule(ctx, task.ID, time.Now().Add(backoff), err.Error()); resErr != nil {
			return resErr
		}
		return err
	}

	if err := r.repo.MarkCompleted(ctx, task.ID); err != nil {
		return err
	}

	r.metrics.TasksProcessed.Inc()
	return nil
}
