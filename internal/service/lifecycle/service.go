package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/internal/service/review"
	"github.com/khadra/initiative-api/pkg/event"
	"github.com/khadra/initiative-api/pkg/logger"
	"github.com/khadra/initiative-api/pkg/scheduler"
)

// Config is the review policy injected at construction.
type Config struct {
	ReviewPeriod       time.Duration
	MinReviewsRequired int
}

// Service drives initiative status transitions. Every transition is a
// conditional update guarded on the current status, so the scheduler's
// at-least-once delivery (and out-of-order redelivery) cannot double-apply
// a transition or resurrect a cancelled initiative.
type Service struct {
	initiativeRepo repository.InitiativeRepository
	reviewRepo     repository.ReviewRepository
	sched          scheduler.Scheduler
	emitter        event.Emitter
	config         Config
	logger         *logger.Logger
	now            func() time.Time
}

func NewService(
	initiativeRepo repository.InitiativeRepository,
	reviewRepo repository.ReviewRepository,
	sched scheduler.Scheduler,
	emitter event.Emitter,
	config Config,
	logger *logger.Logger,
) *Service {
	return &Service{
		initiativeRepo: initiativeRepo,
		reviewRepo:     reviewRepo,
		sched:          sched,
		emitter:        emitter,
		config:         config,
		logger:         logger,
		now:            time.Now,
	}
}

// RegisterHandlers binds the lifecycle operations to their task names.
func (s *Service) RegisterHandlers(runner *scheduler.Runner) {
	runner.Register(model.TaskEvaluateInitiative, s.Evaluate)
	runner.Register(model.TaskStartInitiative, s.Start)
	runner.Register(model.TaskCompleteInitiative, s.Complete)
}

// OnInitiativeCreated schedules the review evaluation. Called synchronously
// by the creation flow after the initiative is persisted; fire-and-forget.
func (s *Service) OnInitiativeCreated(ctx context.Context, initiative *model.Initiative) error {
	eta := s.now().Add(s.config.ReviewPeriod)
	if err := s.sched.Schedule(ctx, model.TaskEvaluateInitiative, initiative.ID, eta); err != nil {
		return fmt.Errorf("failed to schedule evaluation: %w", err)
	}
	return nil
}

// Evaluate tallies the accumulated reviews once the review period ends and
// settles the initiative as upcoming or review_failed. A vanished initiative
// is treated as already handled. The status write is guarded on
// under_review, so a redelivered evaluation finds the guard closed and does
// nothing: no duplicate event, no duplicate scheduling.
func (s *Service) Evaluate(ctx context.Context, initiativeID uuid.UUID) error {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get initiative: %w", err)
	}

	counts, err := s.reviewRepo.CountVotes(ctx, initiativeID)
	if err != nil {
		return fmt.Errorf("failed to count votes: %w", err)
	}

	outcome := review.Evaluate(counts, s.config.MinReviewsRequired)

	switch outcome {
	case review.OutcomeFailedLackOfQuorum:
		return s.failReview(ctx, initiative, event.ReasonLackOfReviews)
	case review.OutcomeFailedByMajorityReject:
		return s.failReview(ctx, initiative, event.ReasonRejectedByManagers)
	default:
		return s.approve(ctx, initiative)
	}
}

func (s *Service) failReview(ctx context.Context, initiative *model.Initiative, reason string) error {
	moved, err := s.initiativeRepo.UpdateStatusIf(ctx, initiative.ID,
		[]model.InitiativeStatus{model.InitiativeStatusUnderReview},
		model.InitiativeStatusReviewFailed)
	if err != nil {
		return fmt.Errorf("failed to set review_failed: %w", err)
	}
	if !moved {
		return nil
	}

	s.logger.Info("initiative review failed",
		"initiative_id", initiative.ID.String(),
		"reason", reason)

	initiative.Status = model.InitiativeStatusReviewFailed
	return s.emitter.Emit(ctx, event.TypeInitiativeReviewFailed, initiative, reason)
}

func (s *Service) approve(ctx context.Context, initiative *model.Initiative) error {
	moved, err := s.initiativeRepo.UpdateStatusIf(ctx, initiative.ID,
		[]model.InitiativeStatus{model.InitiativeStatusUnderReview},
		model.InitiativeStatusUpcoming)
	if err != nil {
		return fmt.Errorf("failed to set upcoming: %w", err)
	}
	if !moved {
		return nil
	}

	s.logger.Info("initiative approved", "initiative_id", initiative.ID.String())

	initiative.Status = model.InitiativeStatusUpcoming
	if err := s.emitter.Emit(ctx, event.TypeInitiativeApproved, initiative, ""); err != nil {
		return err
	}

	now := s.now()

	// ETAs already in the past are not scheduled. An initiative approved
	// after its window stays upcoming until an operator intervenes.
	if initiative.ScheduledAt.After(now) {
		if err := s.sched.Schedule(ctx, model.TaskStartInitiative, initiative.ID, initiative.ScheduledAt); err != nil {
			return fmt.Errorf("failed to schedule start: %w", err)
		}
	} else {
		s.logger.Warn("start time already passed at evaluation, not scheduling start",
			"initiative_id", initiative.ID.String(),
			"scheduled_at", initiative.ScheduledAt.Format(time.RFC3339))
	}

	endTime := initiative.EndTime()
	if endTime.After(now) {
		if err := s.sched.Schedule(ctx, model.TaskCompleteInitiative, initiative.ID, endTime); err != nil {
			return fmt.Errorf("failed to schedule completion: %w", err)
		}
	} else {
		s.logger.Warn("end time already passed at evaluation, not scheduling completion",
			"initiative_id", initiative.ID.String(),
			"ends_at", endTime.Format(time.RFC3339))
	}

	return nil
}

// Start moves an upcoming initiative to ongoing. The guard makes a
// redelivered or late-firing start a no-op, including after cancellation.
func (s *Service) Start(ctx context.Context, initiativeID uuid.UUID) error {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get initiative: %w", err)
	}

	moved, err := s.initiativeRepo.UpdateStatusIf(ctx, initiativeID,
		[]model.InitiativeStatus{model.InitiativeStatusUpcoming},
		model.InitiativeStatusOngoing)
	if err != nil {
		return fmt.Errorf("failed to set ongoing: %w", err)
	}
	if !moved {
		return nil
	}

	s.logger.Info("initiative started", "initiative_id", initiativeID.String())

	initiative.Status = model.InitiativeStatusOngoing
	return s.emitter.Emit(ctx, event.TypeInitiativeStarted, initiative, "")
}

// Complete moves an ongoing initiative to completed. Upcoming is also
// accepted so an initiative whose start task never fired still completes.
func (s *Service) Complete(ctx context.Context, initiativeID uuid.UUID) error {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get initiative: %w", err)
	}

	moved, err := s.initiativeRepo.UpdateStatusIf(ctx, initiativeID,
		[]model.InitiativeStatus{model.InitiativeStatusOngoing, model.InitiativeStatusUpcoming},
		model.InitiativeStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to set completed: %w", err)
	}
	if !moved {
		return nil
	}

	s.logger.Info("initiative completed", "initiative_id", initiativeID.String())

	initiative.Status = model.InitiativeStatusCompleted
	return s.emitter.Emit(ctx, event.TypeInitiativeCompleted, initiative, "")
}
