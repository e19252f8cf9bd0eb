package initiative

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/internal/service/geo"
	"github.com/khadra/initiative-api/internal/service/lifecycle"
	apperrors "github.com/khadra/initiative-api/pkg/errors"
	"github.com/khadra/initiative-api/pkg/event"
	"github.com/khadra/initiative-api/pkg/logger"
)

type fakeInitiativeRepo struct {
	initiatives map[uuid.UUID]*model.Initiative
	volunteers  map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeInitiativeRepo() *fakeInitiativeRepo {
	return &fakeInitiativeRepo{
		initiatives: make(map[uuid.UUID]*model.Initiative),
		volunteers:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeInitiativeRepo) Create(_ context.Context, initiative *model.Initiative) error {
	initiative.ID = uuid.New()
	f.initiatives[initiative.ID] = initiative
	return nil
}

func (f *fakeInitiativeRepo) Get(_ context.Context, id uuid.UUID) (*model.Initiative, error) {
	initiative, ok := f.initiatives[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return initiative, nil
}

func (f *fakeInitiativeRepo) List(_ context.Context, filters *model.InitiativeFilters) ([]*model.Initiative, error) {
	var out []*model.Initiative
	for _, i := range f.initiatives {
		if filters != nil && filters.Status != "" && i.Status != filters.Status {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeInitiativeRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, from []model.InitiativeStatus, to model.InitiativeStatus) (bool, error) {
	initiative, ok := f.initiatives[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if initiative.Status == s {
			initiative.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInitiativeRepo) AddVolunteer(_ context.Context, initiativeID, userID uuid.UUID) error {
	if f.volunteers[initiativeID] == nil {
		f.volunteers[initiativeID] = make(map[uuid.UUID]bool)
	}
	if f.volunteers[initiativeID][userID] {
		return repository.ErrDuplicate
	}
	f.volunteers[initiativeID][userID] = true
	return nil
}

func (f *fakeInitiativeRepo) ListVolunteerIDs(_ context.Context, initiativeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.volunteers[initiativeID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) ListManagerIDs(_ context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeUserRepo) addUser(accountType model.AccountType) uuid.UUID {
	id := uuid.New()
	f.users[id] = &model.User{ID: id, AccountType: accountType}
	return id
}

type fakeCityRepo struct {
	cities []*model.City
}

func (f *fakeCityRepo) Get(_ context.Context, id uuid.UUID) (*model.City, error) {
	for _, c := range f.cities {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCityRepo) FindContaining(_ context.Context, lon, lat float64) (*model.City, error) {
	for _, c := range f.cities {
		if c.Contains(model.GeoPoint{Longitude: lon, Latitude: lat}) {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeReviewRepo struct{}

func (f *fakeReviewRepo) Create(_ context.Context, _ *model.Review) error { return nil }
func (f *fakeReviewRepo) ExistsFor(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}
func (f *fakeReviewRepo) CountVotes(_ context.Context, _ uuid.UUID) (model.VoteCounts, error) {
	return model.VoteCounts{}, nil
}
func (f *fakeReviewRepo) ListForInitiative(_ context.Context, _ uuid.UUID) ([]*model.Review, error) {
	return nil, nil
}

type scheduledCall struct {
	name         string
	initiativeID uuid.UUID
	eta          time.Time
}

type fakeScheduler struct {
	calls []scheduledCall
}

func (f *fakeScheduler) Schedule(_ context.Context, name string, initiativeID uuid.UUID, eta time.Time) error {
	f.calls = append(f.calls, scheduledCall{name: name, initiativeID: initiativeID, eta: eta})
	return nil
}

type emittedEvent struct {
	typ    event.Type
	status model.InitiativeStatus
}

type fakeEmitter struct {
	events []emittedEvent
}

func (f *fakeEmitter) Emit(_ context.Context, typ event.Type, initiative *model.Initiative, _ string) error {
	f.events = append(f.events, emittedEvent{typ: typ, status: initiative.Status})
	return nil
}

type initiativeFixture struct {
	svc            *Service
	initiativeRepo *fakeInitiativeRepo
	userRepo       *fakeUserRepo
	sched          *fakeScheduler
	emitter        *fakeEmitter
	now            time.Time
	managerID      uuid.UUID
}

func newInitiativeFixture(t *testing.T) *initiativeFixture {
	t.Helper()

	f := &initiativeFixture{
		initiativeRepo: newFakeInitiativeRepo(),
		userRepo:       newFakeUserRepo(),
		sched:          &fakeScheduler{},
		emitter:        &fakeEmitter{},
		now:            time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.managerID = f.userRepo.addUser(model.AccountTypeManager)

	cityRepo := &fakeCityRepo{cities: []*model.City{{
		ID:     uuid.New(),
		Name:   "Algiers",
		MinLon: 2.9, MinLat: 36.6, MaxLon: 3.3, MaxLat: 36.9,
	}}}

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	lifecycleSvc := lifecycle.NewService(
		f.initiativeRepo,
		&fakeReviewRepo{},
		f.sched,
		f.emitter,
		lifecycle.Config{ReviewPeriod: 7 * 24 * time.Hour, MinReviewsRequired: 5},
		log,
	)

	f.svc = NewService(
		f.initiativeRepo,
		f.userRepo,
		geo.NewService(cityRepo),
		lifecycleSvc,
		f.emitter,
		Config{MinLeadTime: 7 * 24 * time.Hour},
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *initiativeFixture) validRequest() *model.CreateInitiativeRequest {
	return &model.CreateInitiativeRequest{
		Info:               "beach cleanup",
		Longitude:          3.05,
		Latitude:           36.75,
		RequiredVolunteers: 10,
		ScheduledAt:        f.now.Add(8 * 24 * time.Hour),
		DurationDays:       1,
	}
}

func assertAppErrorCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateInitiative(t *testing.T) {
	f := newInitiativeFixture(t)

	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.InitiativeStatusUnderReview, initiative.Status)
	assert.NotNil(t, initiative.CityID)
	assert.Equal(t, f.managerID, initiative.CreatedBy)

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.TypeInitiativeCreated, f.emitter.events[0].typ)

	require.Len(t, f.sched.calls, 1)
	assert.Equal(t, model.TaskEvaluateInitiative, f.sched.calls[0].name)
	assert.Equal(t, f.now.Add(7*24*time.Hour), f.sched.calls[0].eta)
}

func TestCreateInitiativeRequiresManager(t *testing.T) {
	f := newInitiativeFixture(t)
	volunteerID := f.userRepo.addUser(model.AccountTypeVolunteer)

	_, err := f.svc.CreateInitiative(context.Background(), volunteerID, f.validRequest())
	assertAppErrorCode(t, err, apperrors.ErrForbidden)
}

func TestCreateInitiativeUnknownUser(t *testing.T) {
	f := newInitiativeFixture(t)

	_, err := f.svc.CreateInitiative(context.Background(), uuid.New(), f.validRequest())
	assertAppErrorCode(t, err, apperrors.ErrNotFound)
}

func TestCreateInitiativeRejectsPastDate(t *testing.T) {
	f := newInitiativeFixture(t)
	req := f.validRequest()
	req.ScheduledAt = f.now.Add(-time.Hour)

	_, err := f.svc.CreateInitiative(context.Background(), f.managerID, req)
	assertAppErrorCode(t, err, apperrors.ErrBadRequest)
}

func TestCreateInitiativeRejectsShortLeadTime(t *testing.T) {
	f := newInitiativeFixture(t)
	req := f.validRequest()
	req.ScheduledAt = f.now.Add(24 * time.Hour)

	_, err := f.svc.CreateInitiative(context.Background(), f.managerID, req)
	assertAppErrorCode(t, err, apperrors.ErrBadRequest)
}

func TestCreateInitiativeRejectsUncoveredLocation(t *testing.T) {
	f := newInitiativeFixture(t)
	req := f.validRequest()
	req.Longitude = 139.69
	req.Latitude = 35.68

	_, err := f.svc.CreateInitiative(context.Background(), f.managerID, req)
	assertAppErrorCode(t, err, apperrors.ErrBadRequest)
}

func TestJoin(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)

	volunteerID := f.userRepo.addUser(model.AccountTypeVolunteer)
	require.NoError(t, f.svc.Join(context.Background(), initiative.ID, volunteerID))

	ids, err := f.initiativeRepo.ListVolunteerIDs(context.Background(), initiative.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{volunteerID}, ids)
}

func TestJoinTwiceConflicts(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)

	volunteerID := f.userRepo.addUser(model.AccountTypeVolunteer)
	require.NoError(t, f.svc.Join(context.Background(), initiative.ID, volunteerID))

	err = f.svc.Join(context.Background(), initiative.ID, volunteerID)
	assertAppErrorCode(t, err, apperrors.ErrConflict)
}

func TestJoinClosedInitiative(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)
	f.initiativeRepo.initiatives[initiative.ID].Status = model.InitiativeStatusCompleted

	volunteerID := f.userRepo.addUser(model.AccountTypeVolunteer)
	err = f.svc.Join(context.Background(), initiative.ID, volunteerID)
	assertAppErrorCode(t, err, apperrors.ErrBadRequest)
}

func TestCancel(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)
	f.initiativeRepo.initiatives[initiative.ID].Status = model.InitiativeStatusUpcoming

	require.NoError(t, f.svc.Cancel(context.Background(), initiative.ID, f.managerID))

	assert.Equal(t, model.InitiativeStatusCancelled, f.initiativeRepo.initiatives[initiative.ID].Status)
	last := f.emitter.events[len(f.emitter.events)-1]
	assert.Equal(t, event.TypeInitiativeCancelled, last.typ)
	assert.Equal(t, model.InitiativeStatusCancelled, last.status)
}

func TestCancelRequiresCreator(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)
	f.initiativeRepo.initiatives[initiative.ID].Status = model.InitiativeStatusUpcoming

	otherID := f.userRepo.addUser(model.AccountTypeManager)
	err = f.svc.Cancel(context.Background(), initiative.ID, otherID)
	assertAppErrorCode(t, err, apperrors.ErrForbidden)
}

func TestCancelUnderReviewRejected(t *testing.T) {
	f := newInitiativeFixture(t)
	initiative, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), initiative.ID, f.managerID)
	assertAppErrorCode(t, err, apperrors.ErrBadRequest)
	assert.Equal(t, model.InitiativeStatusUnderReview, f.initiativeRepo.initiatives[initiative.ID].Status)
}

func TestGetInitiativeNotFound(t *testing.T) {
	f := newInitiativeFixture(t)

	_, err := f.svc.GetInitiative(context.Background(), uuid.New())
	assertAppErrorCode(t, err, apperrors.ErrNotFound)
}

func TestListInitiativesByStatus(t *testing.T) {
	f := newInitiativeFixture(t)
	first, err := f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)
	_, err = f.svc.CreateInitiative(context.Background(), f.managerID, f.validRequest())
	require.NoError(t, err)
	f.initiativeRepo.initiatives[first.ID].Status = model.InitiativeStatusUpcoming

	upcoming, err := f.svc.ListInitiatives(context.Background(), &model.InitiativeFilters{Status: model.InitiativeStatusUpcoming})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, first.ID, upcoming[0].ID)
}
