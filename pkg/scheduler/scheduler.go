package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/pkg/logger"
)

// Scheduler enqueues named units of work to run at or after an ETA.
// Execution is fire-and-forget from the caller's perspective and
// at-least-once from the runner's.
type Scheduler interface {
	Schedule(ctx context.Context, name string, initiativeID uuid.UUID, eta time.Time) error
}

type storeScheduler struct {
	repo   repository.TaskRepository
	logger *logger.Logger
}

// New returns a Scheduler backed by the task table.
func New(repo repository.TaskRepository, logger *logger.Logger) Scheduler {
	return &storeScheduler{repo: repo, logger: logger}
}

func (s *storeScheduler) Schedule(ctx context.Context, name string, initiativeID uuid.UUID, eta time.Time) error {
	task := &model.ScheduledTask{
		Name:         name,
		InitiativeID: initiativeID,
		RunAt:        eta,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return err
	}

	s.logger.Debug("task scheduled",
		"task", name,
		"initiative_id", initiativeID.String(),
		"run_at", eta.Format(time.RFC3339))
	return nil
}
