package idallocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
)

// fakeVillageIDRepo is a hand-rolled in-memory villageid.Repository; the
// interface is small enough that a fake is simpler here than a generated
// mock, and lets Allocate/Resolve be exercised against real counter state
// across calls instead of a single EXPECT().
type fakeVillageIDRepo struct {
	tenantCodes map[string]string
	orgCodes    map[string]string
	counters    map[string]uint32
	lookups     map[string]*villageid.Lookup
}

func newFakeVillageIDRepo() *fakeVillageIDRepo {
	return &fakeVillageIDRepo{
		tenantCodes: map[string]string{},
		orgCodes:    map[string]string{},
		counters:    map[string]uint32{},
		lookups:     map[string]*villageid.Lookup{},
	}
}

func (f *fakeVillageIDRepo) NextCounter(ctx context.Context, tenantCode, orgCode string) (uint32, error) {
	key := tenantCode + "/" + orgCode
	f.counters[key]++

	return f.counters[key], nil
}

func (f *fakeVillageIDRepo) TenantCode(ctx context.Context, tenantID string) (string, error) {
	code, ok := f.tenantCodes[tenantID]
	if !ok {
		return "", common.EntityNotFoundError{EntityType: "Tenant"}
	}

	return code, nil
}

func (f *fakeVillageIDRepo) OrganizationCode(ctx context.Context, tenantID, organizationID string) (string, error) {
	code, ok := f.orgCodes[tenantID+"/"+organizationID]
	if !ok {
		return "", common.EntityNotFoundError{EntityType: "Organization"}
	}

	return code, nil
}

func (f *fakeVillageIDRepo) Insert(ctx context.Context, l villageid.Lookup) error {
	cp := l
	f.lookups[l.VillageID] = &cp

	return nil
}

func (f *fakeVillageIDRepo) Resolve(ctx context.Context, villageID string) (*villageid.Lookup, error) {
	l, ok := f.lookups[villageID]
	if !ok {
		return nil, common.EntityNotFoundError{EntityType: "VillageID"}
	}

	return l, nil
}

func (f *fakeVillageIDRepo) TenantCodeExists(ctx context.Context, tenantCode string) (bool, error) {
	for _, code := range f.tenantCodes {
		if code == tenantCode {
			return true, nil
		}
	}

	return false, nil
}

func TestAllocator_Allocate(t *testing.T) {
	testCases := []struct {
		name           string
		organizationID string
		expectedPrefix string
	}{
		{
			name:           "tenant-level resource gets org code 0000",
			organizationID: "",
			expectedPrefix: "00a1-0000-",
		},
		{
			name:           "org-scoped resource carries the org's code",
			organizationID: "org-1",
			expectedPrefix: "00a1-0002-",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeVillageIDRepo()
			repo.tenantCodes["tenant-1"] = "00a1"
			repo.orgCodes["tenant-1/org-1"] = "0002"

			a := New(repo)

			id, err := a.Allocate(context.Background(), villageid.KindEntity, "tenant-1", tc.organizationID)

			require.NoError(t, err)
			assert.True(t, IsWellFormed(id), "expected %q to be well-formed", id)
			assert.Contains(t, id, tc.expectedPrefix)
		})
	}
}

func TestAllocator_Allocate_FirstCounterValueRoundTrips(t *testing.T) {
	repo := newFakeVillageIDRepo()
	repo.tenantCodes["tenant-1"] = "00a1"
	repo.orgCodes["tenant-1/org-1"] = "0002"

	a := New(repo)

	id, err := a.Allocate(context.Background(), villageid.KindEntity, "tenant-1", "org-1")

	require.NoError(t, err)
	assert.Equal(t, "00a1-0002-00000001", id)
}

func TestAllocator_Allocate_UnknownTenant(t *testing.T) {
	repo := newFakeVillageIDRepo()
	a := New(repo)

	_, err := a.Allocate(context.Background(), villageid.KindEntity, "missing-tenant", "")

	require.Error(t, err)
	assert.IsType(t, common.EntityNotFoundError{}, err)
}

func TestAllocator_BindInternalID(t *testing.T) {
	repo := newFakeVillageIDRepo()
	repo.tenantCodes["tenant-1"] = "00a1"

	a := New(repo)

	id, err := a.Allocate(context.Background(), villageid.KindIdentity, "tenant-1", "")
	require.NoError(t, err)

	require.NoError(t, a.BindInternalID(context.Background(), id, "internal-123"))

	resolved, err := repo.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "internal-123", resolved.InternalID)
	assert.Equal(t, villageid.KindIdentity, resolved.Kind)
}

func TestAllocator_Resolve(t *testing.T) {
	repo := newFakeVillageIDRepo()
	repo.tenantCodes["tenant-1"] = "00a1"

	a := New(repo)

	id, err := a.Allocate(context.Background(), villageid.KindEntity, "tenant-1", "")
	require.NoError(t, err)
	require.NoError(t, a.BindInternalID(context.Background(), id, "entity-9"))

	testCases := []struct {
		name        string
		villageID   string
		expectError bool
	}{
		{name: "resolves a bound id", villageID: id, expectError: false},
		{name: "rejects a malformed id", villageID: "not-a-village-id", expectError: true},
		{name: "rejects an unregistered id", villageID: "00a1-0000-000000ff", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolution, err := a.Resolve(context.Background(), tc.villageID)

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, resolution)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "entity-9", resolution.InternalID)
			assert.Equal(t, "/entities/entity-9", resolution.RedirectURL)
		})
	}
}

func TestAllocator_Resolve_UnknownTenantSegment(t *testing.T) {
	repo := newFakeVillageIDRepo()
	repo.tenantCodes["tenant-1"] = "00a1"

	a := New(repo)

	id, err := a.Allocate(context.Background(), villageid.KindEntity, "tenant-1", "")
	require.NoError(t, err)
	require.NoError(t, a.BindInternalID(context.Background(), id, "entity-9"))

	delete(repo.tenantCodes, "tenant-1")

	_, err = a.Resolve(context.Background(), id)

	require.Error(t, err)
	assert.IsType(t, common.EntityNotFoundError{}, err)
}

func TestIsWellFormed(t *testing.T) {
	testCases := []struct {
		name   string
		id     string
		wantOK bool
	}{
		{name: "canonical form", id: "00a1-0002-00000001", wantOK: true},
		{name: "uppercase hex", id: "00A1-0002-00000001", wantOK: true},
		{name: "missing segment", id: "00a1-00000001", wantOK: false},
		{name: "non-hex characters", id: "zzzz-0002-00000001", wantOK: false},
		{name: "empty string", id: "", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantOK, IsWellFormed(tc.id))
		})
	}
}
