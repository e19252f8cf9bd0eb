package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

type reviewRepository struct {
	*BaseRepository
}

func NewReviewRepository(base *BaseRepository) repository.ReviewRepository {
	return &reviewRepository{BaseRepository: base}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO initiative_reviews (id, initiative_id, manager_id, vote, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	review.ID = uuid.New()
	review.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.InitiativeID,
		review.ManagerID,
		review.Vote,
		review.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// unique (initiative_id, manager_id)
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) ExistsFor(ctx context.Context, initiativeID, managerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM initiative_reviews
			WHERE initiative_id = $1 AND manager_id = $2
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, initiativeID, managerID)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return exists, nil
}

func (r *reviewRepository) CountVotes(ctx context.Context, initiativeID uuid.UUID) (model.VoteCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE vote = 'approve') AS approve_count,
			COUNT(*) FILTER (WHERE vote = 'reject')  AS reject_count
		FROM initiative_reviews
		WHERE initiative_id = $1
	`
	var counts model.VoteCounts
	err := r.db.GetContext(ctx, &counts, query, initiativeID)
	if err != nil {
		return model.VoteCounts{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return counts, nil
}

func (r *reviewRepository) ListForInitiative(ctx context.Context, initiativeID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT id, initiative_id, manager_id, vote, created_at
		FROM initiative_reviews
		WHERE initiative_id = $1
		ORDER BY created_at ASC
	`
	var reviews []*model.Review
	err := r.db.SelectContext(ctx, &reviews, query, initiativeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
