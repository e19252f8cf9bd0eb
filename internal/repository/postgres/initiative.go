package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
)

type initiativeRepository struct {
	*BaseRepository
}

func NewInitiativeRepository(base *BaseRepository) repository.InitiativeRepository {
	return &initiativeRepository{BaseRepository: base}
}

func (r *initiativeRepository) Create(ctx context.Context, initiative *model.Initiative) error {
	query := `
		INSERT INTO initiatives (
			id, status, info, city_id, longitude, latitude,
			required_volunteers, scheduled_at, duration_days, ends_at,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	initiative.ID = uuid.New()
	initiative.CreatedAt = time.Now()
	initiative.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		initiative.ID,
		initiative.Status,
		initiative.Info,
		initiative.CityID,
		initiative.Longitude,
		initiative.Latitude,
		initiative.RequiredVolunteers,
		initiative.ScheduledAt,
		initiative.DurationDays,
		initiative.EndsAt,
		initiative.CreatedBy,
		initiative.CreatedAt,
		initiative.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create initiative: %w", err)
	}
	return nil
}

func (r *initiativeRepository) Get(ctx context.Context, id uuid.UUID) (*model.Initiative, error) {
	query := `
		SELECT id, status, info, city_id, longitude, latitude,
			   required_volunteers, scheduled_at, duration_days, ends_at,
			   created_by, created_at, updated_at
		FROM initiatives
		WHERE id = $1
	`
	var initiative model.Initiative
	err := r.db.GetContext(ctx, &initiative, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get initiative: %w", err)
	}
	return &initiative, nil
}

func (r *initiativeRepository) List(ctx context.Context, filters *model.InitiativeFilters) ([]*model.Initiative, error) {
	query := `
		SELECT id, status, info, city_id, longitude, latitude,
			   required_volunteers, scheduled_at, duration_days, ends_at,
			   created_by, created_at, updated_at
		FROM initiatives
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.CityID != uuid.Nil {
			query += fmt.Sprintf(" AND city_id = $%d", argCount)
			args = append(args, filters.CityID)
			argCount++
		}
		if filters.CreatedBy != uuid.Nil {
			query += fmt.Sprintf(" AND created_by = $%d", argCount)
			args = append(args, filters.CreatedBy)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var initiatives []*model.Initiative
	err := r.db.SelectContext(ctx, &initiatives, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list initiatives: %w", err)
	}
	return initiatives, nil
}

func (r *initiativeRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []model.InitiativeStatus, to model.InitiativeStatus) (bool, error) {
	query := `
		UPDATE initiatives
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	fromStr := make([]string, len(from))
	for i, s := range from {
		fromStr[i] = string(s)
	}

	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, pq.Array(fromStr))
	if err != nil {
		return false, fmt.Errorf("failed to update initiative status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *initiativeRepository) AddVolunteer(ctx context.Context, initiativeID, userID uuid.UUID) error {
	query := `
		INSERT INTO initiative_volunteers (initiative_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, initiativeID, userID, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to add volunteer: %w", err)
	}
	return nil
}

func (r *initiativeRepository) ListVolunteerIDs(ctx context.Context, initiativeID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM initiative_volunteers
		WHERE initiative_id = $1
		ORDER BY joined_at ASC
	`
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, query, initiativeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	return ids, nil
}
