package initiative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/internal/service/geo"
	"github.com/khadra/initiative-api/internal/service/lifecycle"
	"github.com/khadra/initiative-api/pkg/event"
	apperrors "github.com/khadra/initiative-api/pkg/errors"
)

// Config holds creation-time policy.
type Config struct {
	// MinLeadTime is how far in the future an initiative must be scheduled.
	MinLeadTime time.Duration
}

// Service handles initiative creation and the user-facing operations that
// surround the lifecycle: joining as a volunteer and cancelling. Status
// transitions other than cancellation belong to the lifecycle service.
type Service struct {
	initiativeRepo repository.InitiativeRepository
	userRepo       repository.UserRepository
	geoSvc         *geo.Service
	lifecycleSvc   *lifecycle.Service
	emitter        event.Emitter
	config         Config
	now            func() time.Time
}

func NewService(
	initiativeRepo repository.InitiativeRepository,
	userRepo repository.UserRepository,
	geoSvc *geo.Service,
	lifecycleSvc *lifecycle.Service,
	emitter event.Emitter,
	config Config,
) *Service {
	return &Service{
		initiativeRepo: initiativeRepo,
		userRepo:       userRepo,
		geoSvc:         geoSvc,
		lifecycleSvc:   lifecycleSvc,
		emitter:        emitter,
		config:         config,
		now:            time.Now,
	}
}

// CreateInitiative validates the proposal, pins it to a city, persists it as
// under_review, notifies the manager pool and schedules the review
// evaluation.
func (s *Service) CreateInitiative(ctx context.Context, creatorID uuid.UUID, req *model.CreateInitiativeRequest) (*model.Initiative, error) {
	creator, err := s.userRepo.Get(ctx, creatorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !creator.IsManager() {
		return nil, apperrors.Forbidden("you have to be a manager to create initiatives", nil)
	}

	now := s.now()
	if req.ScheduledAt.Before(now) {
		return nil, apperrors.BadRequest("invalid date: please schedule your initiative in the future", nil)
	}
	if req.ScheduledAt.Before(now.Add(s.config.MinLeadTime)) {
		return nil, apperrors.BadRequest("invalid date: please schedule your initiative further in advance", nil)
	}

	city, err := s.geoSvc.FindContainingCity(ctx, model.GeoPoint{Longitude: req.Longitude, Latitude: req.Latitude})
	if errors.Is(err, geo.ErrOutsideCoverage) {
		return nil, apperrors.BadRequest("the selected location is outside the covered area", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve city: %w", err)
	}

	initiative := &model.Initiative{
		Status:             model.InitiativeStatusUnderReview,
		Info:               req.Info,
		CityID:             &city.ID,
		Longitude:          req.Longitude,
		Latitude:           req.Latitude,
		RequiredVolunteers: req.RequiredVolunteers,
		ScheduledAt:        req.ScheduledAt,
		DurationDays:       req.DurationDays,
		CreatedBy:          creatorID,
	}
	if err := s.initiativeRepo.Create(ctx, initiative); err != nil {
		return nil, fmt.Errorf("failed to create initiative: %w", err)
	}

	if err := s.emitter.Emit(ctx, event.TypeInitiativeCreated, initiative, ""); err != nil {
		return nil, fmt.Errorf("failed to notify managers: %w", err)
	}

	if err := s.lifecycleSvc.OnInitiativeCreated(ctx, initiative); err != nil {
		return nil, err
	}

	return initiative, nil
}

func (s *Service) GetInitiative(ctx context.Context, id uuid.UUID) (*model.Initiative, error) {
	initiative, err := s.initiativeRepo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("initiative", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get initiative: %w", err)
	}
	return initiative, nil
}

func (s *Service) ListInitiatives(ctx context.Context, filters *model.InitiativeFilters) ([]*model.Initiative, error) {
	initiatives, err := s.initiativeRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list initiatives: %w", err)
	}
	return initiatives, nil
}

// Join adds a user to the initiative's volunteer set. Joining is open while
// the initiative has not finished.
func (s *Service) Join(ctx context.Context, initiativeID, userID uuid.UUID) error {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("initiative", err)
	}
	if err != nil {
		return fmt.Errorf("failed to get initiative: %w", err)
	}

	switch initiative.Status {
	case model.InitiativeStatusUnderReview, model.InitiativeStatusUpcoming, model.InitiativeStatusOngoing:
	default:
		return apperrors.BadRequest("initiative is not open for volunteers", nil)
	}

	if err := s.initiativeRepo.AddVolunteer(ctx, initiativeID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.Conflict("you have already joined this initiative", err)
		}
		return fmt.Errorf("failed to join initiative: %w", err)
	}
	return nil
}

// Cancel force-cancels an upcoming or ongoing initiative. Pending start or
// completion tasks are left in place; their status guards make them no-ops.
func (s *Service) Cancel(ctx context.Context, initiativeID, requestedBy uuid.UUID) error {
	initiative, err := s.initiativeRepo.Get(ctx, initiativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("initiative", err)
	}
	if err != nil {
		return fmt.Errorf("failed to get initiative: %w", err)
	}

	if initiative.CreatedBy != requestedBy {
		return apperrors.Forbidden("only the creator can cancel an initiative", nil)
	}

	moved, err := s.initiativeRepo.UpdateStatusIf(ctx, initiativeID,
		[]model.InitiativeStatus{model.InitiativeStatusUpcoming, model.InitiativeStatusOngoing},
		model.InitiativeStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel initiative: %w", err)
	}
	if !moved {
		return apperrors.BadRequest("initiative cannot be cancelled in its current status", nil)
	}

	initiative.Status = model.InitiativeStatusCancelled
	return s.emitter.Emit(ctx, event.TypeInitiativeCancelled, initiative, "")
}
