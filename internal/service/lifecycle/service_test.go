package lifecycle

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khadra/initiative-api/internal/model"
	"github.com/khadra/initiative-api/internal/repository"
	"github.com/khadra/initiative-api/pkg/event"
	"github.com/khadra/initiative-api/pkg/logger"
)

type fakeInitiativeRepo struct {
	initiatives map[uuid.UUID]*model.Initiative
	getErr      error
}

func newFakeInitiativeRepo() *fakeInitiativeRepo {
	return &fakeInitiativeRepo{initiatives: make(map[uuid.UUID]*model.Initiative)}
}

func (f *fakeInitiativeRepo) Create(_ context.Context, initiative *model.Initiative) error {
	if initiative.ID == uuid.Nil {
		initiative.ID = uuid.New()
	}
	f.initiatives[initiative.ID] = initiative
	return nil
}

func (f *fakeInitiativeRepo) Get(_ context.Context, id uuid.UUID) (*model.Initiative, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	initiative, ok := f.initiatives[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *initiative
	return &copied, nil
}

func (f *fakeInitiativeRepo) List(_ context.Context, _ *model.InitiativeFilters) ([]*model.Initiative, error) {
	return nil, nil
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

func (f *fakeInitiativeRepo) AddVolunteer(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

func (f *fakeInitiativeRepo) ListVolunteerIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeInitiativeRepo) status(id uuid.UUID) model.InitiativeStatus {
	return f.initiatives[id].Status
}

type fakeReviewRepo struct {
	counts map[uuid.UUID]model.VoteCounts
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{counts: make(map[uuid.UUID]model.VoteCounts)}
}

func (f *fakeReviewRepo) Create(_ context.Context, _ *model.Review) error { return nil }

func (f *fakeReviewRepo) ExistsFor(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeReviewRepo) CountVotes(_ context.Context, initiativeID uuid.UUID) (model.VoteCounts, error) {
	return f.counts[initiativeID], nil
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
	err   error
}

func (f *fakeScheduler) Schedule(_ context.Context, name string, initiativeID uuid.UUID, eta time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scheduledCall{name: name, initiativeID: initiativeID, eta: eta})
	return nil
}

func (f *fakeScheduler) find(name string) (scheduledCall, bool) {
	for _, c := range f.calls {
		if c.name == name {
			return c, true
		}
	}
	return scheduledCall{}, false
}

type emittedEvent struct {
	typ    event.Type
	status model.InitiativeStatus
	reason string
}

type fakeEmitter struct {
	events []emittedEvent
}

func (f *fakeEmitter) Emit(_ context.Context, typ event.Type, initiative *model.Initiative, reason string) error {
	f.events = append(f.events, emittedEvent{typ: typ, status: initiative.Status, reason: reason})
	return nil
}

type lifecycleFixture struct {
	svc            *Service
	initiativeRepo *fakeInitiativeRepo
	reviewRepo     *fakeReviewRepo
	sched          *fakeScheduler
	emitter        *fakeEmitter
	now            time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	f := &lifecycleFixture{
		initiativeRepo: newFakeInitiativeRepo(),
		reviewRepo:     newFakeReviewRepo(),
		sched:          &fakeScheduler{},
		emitter:        &fakeEmitter{},
		now:            time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(
		f.initiativeRepo,
		f.reviewRepo,
		f.sched,
		f.emitter,
		Config{ReviewPeriod: 7 * 24 * time.Hour, MinReviewsRequired: 5},
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *lifecycleFixture) addInitiative(t *testing.T, status model.InitiativeStatus, scheduledAt time.Time, durationDays int) uuid.UUID {
	t.Helper()
	initiative := &model.Initiative{
		Status:       status,
		ScheduledAt:  scheduledAt,
		DurationDays: durationDays,
		CreatedBy:    uuid.New(),
	}
	require.NoError(t, f.initiativeRepo.Create(context.Background(), initiative))
	return initiative.ID
}

func TestOnInitiativeCreatedSchedulesEvaluation(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(8*24*time.Hour), 1)

	err := f.svc.OnInitiativeCreated(context.Background(), f.initiativeRepo.initiatives[id])
	require.NoError(t, err)

	call, ok := f.sched.find(model.TaskEvaluateInitiative)
	require.True(t, ok)
	assert.Equal(t, id, call.initiativeID)
	assert.Equal(t, f.now.Add(7*24*time.Hour), call.eta)
}

func TestEvaluateApprovesOnMajority(t *testing.T) {
	f := newLifecycleFixture(t)
	scheduledAt := f.now.Add(24 * time.Hour)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, scheduledAt, 2)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6, Reject: 4}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusUpcoming, f.initiativeRepo.status(id))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.TypeInitiativeApproved, f.emitter.events[0].typ)
	assert.Equal(t, model.InitiativeStatusUpcoming, f.emitter.events[0].status)

	start, ok := f.sched.find(model.TaskStartInitiative)
	require.True(t, ok)
	assert.Equal(t, scheduledAt, start.eta)

	complete, ok := f.sched.find(model.TaskCompleteInitiative)
	require.True(t, ok)
	assert.Equal(t, scheduledAt.Add(2*24*time.Hour), complete.eta)
}

func TestEvaluateApprovesOnTie(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(24*time.Hour), 1)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 3, Reject: 3}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusUpcoming, f.initiativeRepo.status(id))
}

func TestEvaluateFailsOnLackOfQuorum(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(24*time.Hour), 1)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 1}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusReviewFailed, f.initiativeRepo.status(id))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.TypeInitiativeReviewFailed, f.emitter.events[0].typ)
	assert.Equal(t, event.ReasonLackOfReviews, f.emitter.events[0].reason)
	assert.Empty(t, f.sched.calls)
}

func TestEvaluateFailsOnMajorityReject(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(24*time.Hour), 1)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 2, Reject: 4}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusReviewFailed, f.initiativeRepo.status(id))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.ReasonRejectedByManagers, f.emitter.events[0].reason)
	assert.Empty(t, f.sched.calls)
}

func TestEvaluateMissingInitiativeIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)

	require.NoError(t, f.svc.Evaluate(context.Background(), uuid.New()))
	assert.Empty(t, f.emitter.events)
	assert.Empty(t, f.sched.calls)
}

func TestEvaluateStoreErrorPropagates(t *testing.T) {
	f := newLifecycleFixture(t)
	f.initiativeRepo.getErr = errors.New("connection refused")

	err := f.svc.Evaluate(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestEvaluateRedeliveryIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(24*time.Hour), 1)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))
	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	// Guard already closed: single event, single pair of scheduled tasks.
	assert.Len(t, f.emitter.events, 1)
	assert.Len(t, f.sched.calls, 2)
}

func TestEvaluateDoesNotSchedulePastETAs(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(-48*time.Hour), 1)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	// Approval still lands but nothing is scheduled for the past.
	assert.Equal(t, model.InitiativeStatusUpcoming, f.initiativeRepo.status(id))
	assert.Empty(t, f.sched.calls)
}

func TestEvaluateSchedulesCompletionWhenOnlyStartPassed(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, f.now.Add(-12*time.Hour), 2)
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	_, startScheduled := f.sched.find(model.TaskStartInitiative)
	assert.False(t, startScheduled)
	_, completeScheduled := f.sched.find(model.TaskCompleteInitiative)
	assert.True(t, completeScheduled)
}

func TestEvaluateUsesExplicitEndTime(t *testing.T) {
	f := newLifecycleFixture(t)
	scheduledAt := f.now.Add(24 * time.Hour)
	endsAt := f.now.Add(36 * time.Hour)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, scheduledAt, 5)
	f.initiativeRepo.initiatives[id].EndsAt = &endsAt
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6}

	require.NoError(t, f.svc.Evaluate(context.Background(), id))

	complete, ok := f.sched.find(model.TaskCompleteInitiative)
	require.True(t, ok)
	assert.Equal(t, endsAt, complete.eta)
}

func TestStart(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUpcoming, f.now, 1)

	require.NoError(t, f.svc.Start(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusOngoing, f.initiativeRepo.status(id))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.TypeInitiativeStarted, f.emitter.events[0].typ)
}

func TestStartRedeliveryIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUpcoming, f.now, 1)

	require.NoError(t, f.svc.Start(context.Background(), id))
	require.NoError(t, f.svc.Start(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusOngoing, f.initiativeRepo.status(id))
	assert.Len(t, f.emitter.events, 1)
}

func TestStartAfterCancellationIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusCancelled, f.now, 1)

	require.NoError(t, f.svc.Start(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusCancelled, f.initiativeRepo.status(id))
	assert.Empty(t, f.emitter.events)
}

func TestStartMissingInitiativeIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)

	require.NoError(t, f.svc.Start(context.Background(), uuid.New()))
	assert.Empty(t, f.emitter.events)
}

func TestComplete(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusOngoing, f.now, 1)

	require.NoError(t, f.svc.Complete(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusCompleted, f.initiativeRepo.status(id))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, event.TypeInitiativeCompleted, f.emitter.events[0].typ)
}

func TestCompleteToleratesMissedStart(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusUpcoming, f.now, 1)

	require.NoError(t, f.svc.Complete(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusCompleted, f.initiativeRepo.status(id))
}

func TestCompleteRedeliveryIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusOngoing, f.now, 1)

	require.NoError(t, f.svc.Complete(context.Background(), id))
	require.NoError(t, f.svc.Complete(context.Background(), id))

	assert.Len(t, f.emitter.events, 1)
}

func TestCompleteAfterCancellationIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	id := f.addInitiative(t, model.InitiativeStatusCancelled, f.now, 1)

	require.NoError(t, f.svc.Complete(context.Background(), id))

	assert.Equal(t, model.InitiativeStatusCancelled, f.initiativeRepo.status(id))
	assert.Empty(t, f.emitter.events)
}

// Walks an initiative through its whole happy path the way the scheduler
// would deliver it.
func TestFullLifecycle(t *testing.T) {
	f := newLifecycleFixture(t)
	scheduledAt := f.now.Add(8 * 24 * time.Hour)
	id := f.addInitiative(t, model.InitiativeStatusUnderReview, scheduledAt, 1)

	initiative := f.initiativeRepo.initiatives[id]
	require.NoError(t, f.svc.OnInitiativeCreated(context.Background(), initiative))

	evaluate, ok := f.sched.find(model.TaskEvaluateInitiative)
	require.True(t, ok)
	assert.Equal(t, f.now.Add(7*24*time.Hour), evaluate.eta)

	// Review period elapses with enough votes.
	f.now = evaluate.eta
	f.reviewRepo.counts[id] = model.VoteCounts{Approve: 6, Reject: 4}
	require.NoError(t, f.svc.Evaluate(context.Background(), id))
	assert.Equal(t, model.InitiativeStatusUpcoming, f.initiativeRepo.status(id))

	start, ok := f.sched.find(model.TaskStartInitiative)
	require.True(t, ok)
	assert.Equal(t, scheduledAt, start.eta)

	complete, ok := f.sched.find(model.TaskCompleteInitiative)
	require.True(t, ok)
	assert.Equal(t, scheduledAt.Add(24*time.Hour), complete.eta)

	f.now = start.eta
	require.NoError(t, f.svc.Start(context.Background(), id))
	assert.Equal(t, model.InitiativeStatusOngoing, f.initiativeRepo.status(id))

	f.now = complete.eta
	require.NoError(t, f.svc.Complete(context.Background(), id))
	assert.Equal(t, model.InitiativeStatusCompleted, f.initiativeRepo.status(id))

	types := make([]event.Type, 0, len(f.emitter.events))
	for _, e := range f.emitter.events {
		types = append(types, e.typ)
	}
	assert.Equal(t, []event.Type{
		event.TypeInitiativeApproved,
		event.TypeInitiativeStarted,
		event.TypeInitiativeCompleted,
	}, types)
}
