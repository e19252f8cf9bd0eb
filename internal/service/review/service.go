package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	apperrors "github.com/khadra/initiative-api/pkg/errors"
)

// Service handles review submission. All the submission-time invariants live
// here: reviews are accepted only while the initiative is under review, never
// from its creator, and at most once per manager.
type Service struct {
	reviewRepo     repository.ReviewRepository
	initiativeRepo repository.InitiativeRepository
	userRepo       repository.UserRepository
}

func NewService(
	reviewRepo repository.ReviewRepository,
	initiativeRepo repository.InitiativeRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		reviewRepo:     reviewRepo,
		initiativeRepo: initiativeRepo,
		userRepo:       userRepo,
	}
}

func (s *Service) SubmitReview(ctx context.Context, initiativeID, managerID uuid.UUID, vote model.ReviewVote) (*model.Review, error) {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("initiative", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get initiative: %w", err)
	}

	if initiative.Status != model.InitiativeStatusUnderReview {
		return nil, apperrors.BadRequest("initiative is not under review", nil)
	}

	manager, err := s.userRepo.Get(ctx, managerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !manager.IsManager() {
		return nil, apperrors.Forbidden("only managers can review initiatives", nil)
	}

	if initiative.CreatedBy == managerID {
		return nil, apperrors.Forbidden("you cannot review your own initiative", nil)
	}

	exists, err := s.reviewRepo.ExistsFor(ctx, initiativeID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("you have already reviewed this initiative", nil)
	}

	review := &model.Review{
		InitiativeID: initiativeID,
		ManagerID:    managerID,
		Vote:         vote,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// Lost the race against a concurrent submission by the same manager.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("you have already reviewed this initiative", err)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

func (s *Service) ListReviews(ctx context.Context, initiativeID uuid.UUID) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.ListForInitiative(ctx, initiativeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
