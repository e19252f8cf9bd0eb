package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
)

// Sentinel errors shared by all repositories.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ListManagerIDs(ctx context.Context) ([]uuid.UUID, error)
	}

	CityRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.City, error)
		FindContaining(ctx context.Context, lon, lat float64) (*model.City, error)
	}

	InitiativeRepository interface {
		Create(ctx context.Context, initiative *model.Initiative) error
		Get(ctx context.Context, id uuid.UUID) (*model.Initiative, error)
		List(ctx context.Context, filters *model.InitiativeFilters) ([]*model.Initiative, error)
		// UpdateStatusIf moves the initiative to the target status only when
		// its current status is one of from. It reports whether the row moved.
		UpdateStatusIf(ctx context.Context, id uuid.UUID, from []model.InitiativeStatus, to model.InitiativeStatus) (bool, error)
		AddVolunteer(ctx context.Context, initiativeID, userID uuid.UUID) error
		ListVolunteerIDs(ctx context.Context, initiativeID uuid.UUID) ([]uuid.UUID, error)
	}

	ReviewRepository interface {
		Create(ctx context.Context, review *model.Review) error
		ExistsFor(ctx context.Context, initiativeID, managerID uuid.UUID) (bool, error)
		CountVotes(ctx context.Context, initiativeID uuid.UUID) (model.VoteCounts, error)
		ListForInitiative(ctx context.Context, initiativeID uuid.UUID) ([]*model.Review, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]*model.UserNotification, error)
		MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	}

	TaskRepository interface {
		Create(ctx context.Context, task *model.ScheduledTask) error
		// GetDueWithLock claims up to limit pending tasks whose ETA has
		// passed, skipping rows locked by other workers.
		GetDueWithLock(ctx context.Context, now time.Time, limit int) ([]*model.ScheduledTask, error)
		MarkCompleted(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
		Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string) error
		CountPending(ctx context.Context) (int64, error)
	}
)
