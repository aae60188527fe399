package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/court-booking-scheduler/internal/pkg/apperror"
	"github.com/nekogravitycat/court-booking-scheduler/internal/resource"
)

type fakeResources map[string]*resource.Resource

func (f fakeResources) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, resource.ErrNotFound
}

func (f fakeResources) List(_ context.Context, _ resource.Filter) ([]*resource.Resource, int, error) {
	return nil, 0, nil
}

type serviceFixture struct {
	svc       Service
	oracle    *fakeOracle
	submitter *fakeSubmitter
	registry  *Registry
}

func setupService(t *testing.T) serviceFixture {
	t.Helper()
	oracle := newFakeOracle()
	submitter := newFakeSubmitter()
	registry := NewRegistry(time.Hour, zap.NewNop())
	t.Cleanup(registry.Stop)

	resources := fakeResources{
		"court-1": {ID: "court-1", Name: "Court 1"},
		"court-2": {ID: "court-2", Name: "Court 2"},
	}
	svc := NewService(registry, NewExpander(DefaultMaxOccurrences), NewDetector(oracle, 4, 0, zap.NewNop()),
		submitter, resources, Config{Debounce: 5 * time.Millisecond}, zap.NewNop())

	return serviceFixture{svc: svc, oracle: oracle, submitter: submitter, registry: registry}
}

func TestServiceCreateValidatesResource(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("nope")})
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("")})
	assert.ErrorIs(t, err, ErrResourceRequired)

	_, err = f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("court-1"), Mode: "overwrite"})
	assert.ErrorIs(t, err, ErrInvalidResolutionMode)

	assert.Zero(t, f.registry.Len())
}

func TestServiceLifecycle(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("court-1")})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, ModeBlock, created.Mode)

	snap, err := f.svc.Get(ctx, created.ID, "op", time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateStable, snap.State)
	assert.Len(t, snap.Occurrences, 4)

	_, err = f.svc.Get(ctx, created.ID, "intruder", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	missing := "court-9"
	_, err = f.svc.Update(ctx, created.ID, "op", Edit{ResourceID: &missing})
	assert.ErrorIs(t, err, ErrResourceNotFound)

	court2 := "court-2"
	updated, err := f.svc.Update(ctx, created.ID, "op", Edit{ResourceID: &court2})
	require.NoError(t, err)
	assert.Equal(t, "court-2", updated.Inputs.ResourceID)
	assert.Greater(t, updated.Generation, snap.Generation)

	rechecked, err := f.svc.Recheck(ctx, created.ID, "op")
	require.NoError(t, err)
	assert.Greater(t, rechecked.Generation, updated.Generation)

	require.NoError(t, f.svc.Close(ctx, created.ID, "op"))
	_, err = f.svc.Get(ctx, created.ID, "op", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.Close(ctx, created.ID, "op"), ErrSessionNotFound)
}

func TestServiceSubmit(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.oracle.set("court-1", "2024-03-11", Availability{Reason: "existing_reservation", ConflictingRef: "b-1"})
	f.submitter.reject["2024-03-25"] = apperror.New(409, "time slot already booked")

	created, err := f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("court-1")})
	require.NoError(t, err)
	snap, err := f.svc.Get(ctx, created.ID, "op", time.Second)
	require.NoError(t, err)
	require.Len(t, snap.Conflicts, 1)

	visitor := Identity{OperatorID: "op", Visitor: &Visitor{Name: "Ana"}}

	_, err = f.svc.Plan(ctx, created.ID, "op")
	assert.ErrorIs(t, err, ErrHasConflicts)
	_, err = f.svc.Submit(ctx, SubmitRequest{SessionID: created.ID, Identity: visitor})
	assert.ErrorIs(t, err, ErrHasConflicts)
	assert.Empty(t, f.submitter.received)

	_, err = f.svc.SetResolutionMode(ctx, created.ID, "op", ModeSkipConflicts)
	require.NoError(t, err)

	plan, err := f.svc.Plan(ctx, created.ID, "op")
	require.NoError(t, err)
	assert.Len(t, plan.ToSubmit, 3)

	_, err = f.svc.Submit(ctx, SubmitRequest{SessionID: created.ID, Identity: Identity{OperatorID: "op"}})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
	assert.Empty(t, f.submitter.received)

	summary, err := f.svc.Submit(ctx, SubmitRequest{SessionID: created.ID, Identity: visitor, Notes: "league"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Results, 3)
	assert.NotEmpty(t, summary.Results[0].BookingID)
	assert.True(t, errors.Is(summary.Results[2].Err, f.submitter.reject["2024-03-25"]))
	assert.Len(t, f.submitter.received, 3)

	// Submitting refreshes availability.
	after, err := f.svc.Get(ctx, created.ID, "op", 0)
	require.NoError(t, err)
	assert.Greater(t, after.Generation, snap.Generation)
}

func TestServiceSubmitByOtherOperator(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateRequest{OwnerID: "op", Inputs: mondaysInMarch("court-1")})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitRequest{SessionID: created.ID, Identity: Identity{OperatorID: "intruder", ClientRef: "c"}})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
