package oncallresolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
)

// fakeOncallRepo is a hand-rolled in-memory oncall.Repository; no generated
// mock exists under components/core despite the //go:generate directive.
type fakeOncallRepo struct {
	rotations []*oncall.Rotation
	shifts    []*oncall.Shift
	overrides []*oncall.Override
}

func (f *fakeOncallRepo) CreateRotation(ctx context.Context, r *oncall.Rotation) (*oncall.Rotation, error) {
	f.rotations = append(f.rotations, r)
	return r, nil
}

func (f *fakeOncallRepo) FindRotationsByScope(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string) ([]*oncall.Rotation, error) {
	var out []*oncall.Rotation
	for _, r := range f.rotations {
		if r.TenantID == tenantID && r.ScopeType == scopeType && r.ScopeID == scopeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeOncallRepo) AddShift(ctx context.Context, s *oncall.Shift) (*oncall.Shift, error) {
	f.shifts = append(f.shifts, s)
	return s, nil
}

func (f *fakeOncallRepo) FindShiftsByRotation(ctx context.Context, rotationID string, windowStart, windowEnd time.Time) ([]*oncall.Shift, error) {
	var out []*oncall.Shift
	for _, s := range f.shifts {
		if s.RotationID == rotationID && s.Start.Before(windowEnd) && s.End.After(windowStart) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeOncallRepo) CreateOverride(ctx context.Context, o *oncall.Override) (*oncall.Override, error) {
	f.overrides = append(f.overrides, o)
	return o, nil
}

func (f *fakeOncallRepo) FindOverridesByScope(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string, windowStart, windowEnd time.Time) ([]*oncall.Override, error) {
	var out []*oncall.Override
	for _, o := range f.overrides {
		if o.TenantID == tenantID && o.ScopeType == scopeType && o.ScopeID == scopeID && o.Start.Before(windowEnd) && o.End.After(windowStart) {
			out = append(out, o)
		}
	}
	return out, nil
}

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestResolver_CurrentOnCall_RotationShift(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0}
	repo.CreateRotation(context.Background(), rot)
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-1", RotationID: "rot-1", IdentityID: "alice", Start: baseTime, End: baseTime.Add(8 * time.Hour)})

	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "alice", current.IdentityID)
	assert.False(t, current.IsOverride)
}

func TestResolver_CurrentOnCall_OverrideWinsOverRotation(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0}
	repo.CreateRotation(context.Background(), rot)
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-1", RotationID: "rot-1", IdentityID: "alice", Start: baseTime, End: baseTime.Add(8 * time.Hour)})
	repo.CreateOverride(context.Background(), &oncall.Override{
		ID: "ov-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1",
		IdentityID: "bob", Start: baseTime, End: baseTime.Add(8 * time.Hour), CreatedAt: baseTime,
	})

	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "bob", current.IdentityID)
	assert.True(t, current.IsOverride)
}

func TestResolver_CurrentOnCall_MostRecentOverrideWins(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	repo.CreateOverride(context.Background(), &oncall.Override{
		ID: "ov-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1",
		IdentityID: "older", Start: baseTime, End: baseTime.Add(8 * time.Hour), CreatedAt: baseTime,
	})
	repo.CreateOverride(context.Background(), &oncall.Override{
		ID: "ov-2", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1",
		IdentityID: "newer", Start: baseTime, End: baseTime.Add(8 * time.Hour), CreatedAt: baseTime.Add(time.Minute),
	})

	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "newer", current.IdentityID)
}

func TestResolver_CurrentOnCall_LowestPriorityRotationWins(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	repo.CreateRotation(context.Background(), &oncall.Rotation{ID: "rot-primary", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0})
	repo.CreateRotation(context.Background(), &oncall.Rotation{ID: "rot-secondary", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 1})
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-primary", RotationID: "rot-primary", IdentityID: "primary-oncall", Start: baseTime, End: baseTime.Add(8 * time.Hour)})
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-secondary", RotationID: "rot-secondary", IdentityID: "secondary-oncall", Start: baseTime, End: baseTime.Add(8 * time.Hour)})

	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "primary-oncall", current.IdentityID)
}

func TestResolver_CurrentOnCall_NoCoverage(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestResolver_WhoIsOnCallBetween_SweepPartition(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0}
	repo.CreateRotation(context.Background(), rot)
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-1", RotationID: "rot-1", IdentityID: "alice", Start: baseTime, End: baseTime.Add(8 * time.Hour)})
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-2", RotationID: "rot-1", IdentityID: "bob", Start: baseTime.Add(8 * time.Hour), End: baseTime.Add(16 * time.Hour)})

	segments, err := r.WhoIsOnCallBetween(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime, baseTime.Add(16*time.Hour))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, baseTime, segments[0].From)
	assert.Equal(t, baseTime.Add(8*time.Hour), segments[0].To)
	assert.Equal(t, "alice", segments[0].IdentityID)

	assert.Equal(t, baseTime.Add(8*time.Hour), segments[1].From)
	assert.Equal(t, baseTime.Add(16*time.Hour), segments[1].To)
	assert.Equal(t, "bob", segments[1].IdentityID)

	// segments must partition [a, b) exactly with no gaps or overlaps.
	assert.Equal(t, segments[0].To, segments[1].From)
}

func TestResolver_WhoIsOnCallBetween_GapIsEmptyIdentity(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0}
	repo.CreateRotation(context.Background(), rot)
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-1", RotationID: "rot-1", IdentityID: "alice", Start: baseTime, End: baseTime.Add(4 * time.Hour)})

	segments, err := r.WhoIsOnCallBetween(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime, baseTime.Add(8*time.Hour))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "alice", segments[0].IdentityID)
	assert.Equal(t, "", segments[1].IdentityID)
}

func TestResolver_WhoIsOnCallBetween_OverrideCarvesOutWindow(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1", Priority: 0}
	repo.CreateRotation(context.Background(), rot)
	repo.AddShift(context.Background(), &oncall.Shift{ID: "sh-1", RotationID: "rot-1", IdentityID: "alice", Start: baseTime, End: baseTime.Add(8 * time.Hour)})
	repo.CreateOverride(context.Background(), &oncall.Override{
		ID: "ov-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1",
		IdentityID: "bob", Start: baseTime.Add(2 * time.Hour), End: baseTime.Add(4 * time.Hour), CreatedAt: baseTime,
	})

	segments, err := r.WhoIsOnCallBetween(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime, baseTime.Add(8*time.Hour))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "alice", segments[0].IdentityID)
	assert.False(t, segments[0].IsOverride)
	assert.Equal(t, "bob", segments[1].IdentityID)
	assert.True(t, segments[1].IsOverride)
	assert.Equal(t, "alice", segments[2].IdentityID)
	assert.False(t, segments[2].IsOverride)
}

func TestResolver_CurrentOnCall_CronExpandedShift(t *testing.T) {
	repo := &fakeOncallRepo{}
	r := New(repo)

	rot := &oncall.Rotation{
		ID: "rot-1", TenantID: "tenant-1", ScopeType: oncall.ScopeService, ScopeID: "svc-1",
		Priority: 0, CronExpr: "0 0 * * *", ShiftLength: 24 * time.Hour,
	}
	repo.CreateRotation(context.Background(), rot)

	// no explicit shifts recorded; the resolver must fall back to the
	// rotation's cron template for coverage.
	current, err := r.CurrentOnCall(context.Background(), "tenant-1", oncall.ScopeService, "svc-1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.False(t, current.IsOverride)
}
