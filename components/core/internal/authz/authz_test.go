package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
)

// fakeRoleRepo, fakeGroupRepo, and fakeOrgRepo are small hand-rolled
// in-memory stand-ins for the domain Repository interfaces; no generated
// mocks exist under components/core (every Repository carries a
// //go:generate mockgen directive but no *_mock.go tree has been generated).

type fakeRoleRepo struct {
	byIdentity map[string][]*resourcerole.ResourceRole
}

func (f *fakeRoleRepo) Create(ctx context.Context, r *resourcerole.ResourceRole) (*resourcerole.ResourceRole, error) {
	f.byIdentity[r.IdentityID] = append(f.byIdentity[r.IdentityID], r)
	return r, nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeRoleRepo) FindByIdentity(ctx context.Context, identityID string) ([]*resourcerole.ResourceRole, error) {
	return f.byIdentity[identityID], nil
}

func (f *fakeRoleRepo) FindByScope(ctx context.Context, scopeType resourcerole.ScopeType, scopeID string) ([]*resourcerole.ResourceRole, error) {
	return nil, nil
}

type fakeGroupRepo struct {
	members map[string]map[string]bool // groupID -> identityID -> member
}

func (f *fakeGroupRepo) CreateGroup(ctx context.Context, g *group.Group) (*group.Group, error) {
	return g, nil
}
func (f *fakeGroupRepo) FindGroup(ctx context.Context, tenantID, id string) (*group.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepo) Owners(ctx context.Context, groupID string) ([]string, error) { return nil, nil }
func (f *fakeGroupRepo) CreateAccessRequest(ctx context.Context, r *group.AccessRequest) (*group.AccessRequest, error) {
	return r, nil
}
func (f *fakeGroupRepo) FindAccessRequest(ctx context.Context, tenantID, id string) (*group.AccessRequest, error) {
	return nil, nil
}
func (f *fakeGroupRepo) UpdateRequestState(ctx context.Context, id string, revision int64, state group.RequestState) (*group.AccessRequest, error) {
	return nil, nil
}
func (f *fakeGroupRepo) RecordDecision(ctx context.Context, d *group.Decision) (*group.Decision, error) {
	return d, nil
}
func (f *fakeGroupRepo) Decisions(ctx context.Context, requestID string) ([]*group.Decision, error) {
	return nil, nil
}
func (f *fakeGroupRepo) AddMember(ctx context.Context, m *group.Member) (*group.Member, error) {
	if f.members[m.GroupID] == nil {
		f.members[m.GroupID] = map[string]bool{}
	}
	f.members[m.GroupID][m.IdentityID] = true
	return m, nil
}
func (f *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, identityID string) error {
	delete(f.members[groupID], identityID)
	return nil
}
func (f *fakeGroupRepo) Members(ctx context.Context, groupID string) ([]*group.Member, error) {
	return nil, nil
}
func (f *fakeGroupRepo) IsMember(ctx context.Context, groupID, identityID string) (bool, error) {
	return f.members[groupID][identityID], nil
}

type fakeOrgRepo struct {
	orgs map[string]*organization.Organization // key: tenantID+"/"+id
}

func (f *fakeOrgRepo) Create(ctx context.Context, o *organization.Organization) (*organization.Organization, error) {
	return o, nil
}
func (f *fakeOrgRepo) Find(ctx context.Context, tenantID, id string) (*organization.Organization, error) {
	o, ok := f.orgs[tenantID+"/"+id]
	if !ok {
		return nil, common.EntityNotFoundError{EntityType: "Organization"}
	}
	return o, nil
}
func (f *fakeOrgRepo) FindByParent(ctx context.Context, tenantID string, parentID *string) ([]*organization.Organization, error) {
	return nil, nil
}
func (f *fakeOrgRepo) FindAll(ctx context.Context, tenantID string, page, perPage int) ([]*organization.Organization, int64, error) {
	return nil, 0, nil
}
func (f *fakeOrgRepo) HasChildren(ctx context.Context, tenantID, id string) (bool, error) {
	return false, nil
}
func (f *fakeOrgRepo) UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, o *organization.Organization) (*organization.Organization, error) {
	return o, nil
}
func (f *fakeOrgRepo) Delete(ctx context.Context, tenantID, id string) error { return nil }

type fakeHierarchy struct {
	ancestors map[string][]string
}

func (f *fakeHierarchy) AncestorIDs(ctx context.Context, tenantID, organizationID string) ([]string, error) {
	return f.ancestors[organizationID], nil
}

func newTestAuthZ() (*AuthZ, *fakeRoleRepo, *fakeGroupRepo, *fakeOrgRepo, *fakeHierarchy) {
	roles := &fakeRoleRepo{byIdentity: map[string][]*resourcerole.ResourceRole{}}
	groups := &fakeGroupRepo{members: map[string]map[string]bool{}}
	orgs := &fakeOrgRepo{orgs: map[string]*organization.Organization{}}
	hierarchy := &fakeHierarchy{ancestors: map[string][]string{}}

	a := New(roles, groups, orgs, hierarchy, time.Second)

	return a, roles, groups, orgs, hierarchy
}

func TestAuthZ_EffectiveRole_PortalRoleFloor(t *testing.T) {
	a, _, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalAdmin}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1"}

	rank, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankAdmin, rank)
}

func TestAuthZ_EffectiveRole_MaxAcrossGrants(t *testing.T) {
	a, roles, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1", OrganizationID: "org-1"}

	roles.byIdentity["id-1"] = []*resourcerole.ResourceRole{
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeTenant, ScopeID: "tenant-1", Role: resourcerole.RoleOperator},
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeEntity, ScopeID: "e-1", Role: resourcerole.RoleMaintainer},
	}

	rank, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankMaintainer, rank)
}

func TestAuthZ_EffectiveRole_OrganizationGrantInheritedFromAncestor(t *testing.T) {
	a, roles, _, _, hierarchy := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1", OrganizationID: "child-org"}

	hierarchy.ancestors["child-org"] = []string{"root-org"}
	roles.byIdentity["id-1"] = []*resourcerole.ResourceRole{
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeOrganization, ScopeID: "root-org", Role: resourcerole.RoleOperator},
	}

	rank, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankOperator, rank)
}

func TestAuthZ_EffectiveRole_GroupDerivedRank(t *testing.T) {
	a, _, groups, orgs, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1", OrganizationID: "org-1"}

	groupID := "group-1"
	orgs.orgs["tenant-1/org-1"] = &organization.Organization{ID: "org-1", TenantID: "tenant-1", OwnerGroupID: &groupID}
	groups.members[groupID] = map[string]bool{"id-1": true}

	rank, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankMaintainer, rank)
}

func TestAuthZ_EffectiveRole_Memoized(t *testing.T) {
	a, roles, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1"}

	roles.byIdentity["id-1"] = []*resourcerole.ResourceRole{
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeEntity, ScopeID: "e-1", Role: resourcerole.RoleMaintainer},
	}

	first, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankMaintainer, first)

	// mutate the backing grant after the memo is warm; EffectiveRole must
	// keep returning the memoized value until InvalidateMemo runs.
	roles.byIdentity["id-1"][0].Role = resourcerole.RoleViewer

	second, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankMaintainer, second)

	a.InvalidateMemo()

	third, err := a.EffectiveRole(context.Background(), p, res)
	require.NoError(t, err)
	assert.Equal(t, RankViewer, third)
}

func TestAuthZ_Authorize_NoPrincipal(t *testing.T) {
	a, _, _, _, _ := newTestAuthZ()

	err := a.Authorize(context.Background(), Principal{}, constant.ActionEntityRead, Resource{TenantID: "tenant-1"})

	require.Error(t, err)
	assert.IsType(t, common.UnauthenticatedError{}, err)
}

func TestAuthZ_Authorize_CrossTenantDenied(t *testing.T) {
	a, _, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalAdmin}
	res := Resource{TenantID: "tenant-2", ResourceType: "entity"}

	err := a.Authorize(context.Background(), p, constant.ActionEntityRead, res)

	require.Error(t, err)
	forbidden, ok := err.(common.ForbiddenError)
	require.True(t, ok)
	assert.Equal(t, constant.ReasonCrossTenantDenied, forbidden.Reason)
}

func TestAuthZ_Authorize_CrossTenantAllowedForSuperAdmin(t *testing.T) {
	a, _, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalSuperAdmin}
	res := Resource{TenantID: "tenant-2", ResourceType: "entity"}

	err := a.Authorize(context.Background(), p, constant.ActionEntityRead, res)
	assert.NoError(t, err)
}

func TestAuthZ_Authorize_InsufficientRole(t *testing.T) {
	a, _, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1"}

	err := a.Authorize(context.Background(), p, constant.ActionEntityCreate, res)

	require.Error(t, err)
	forbidden, ok := err.(common.ForbiddenError)
	require.True(t, ok)
	assert.Equal(t, constant.ReasonNoRoleOnScope, forbidden.Reason)
}

func TestAuthZ_Authorize_InsufficientRoleWithSomeGrant(t *testing.T) {
	a, roles, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1"}

	roles.byIdentity["id-1"] = []*resourcerole.ResourceRole{
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeEntity, ScopeID: "e-1", Role: resourcerole.RoleOperator},
	}

	err := a.Authorize(context.Background(), p, constant.ActionIdentityManage, res)

	require.Error(t, err)
	forbidden, ok := err.(common.ForbiddenError)
	require.True(t, ok)
	assert.Equal(t, constant.ReasonInsufficientRole, forbidden.Reason)
}

func TestAuthZ_Authorize_Allowed(t *testing.T) {
	a, roles, _, _, _ := newTestAuthZ()

	p := Principal{IdentityID: "id-1", TenantID: "tenant-1", PortalRole: identity.PortalViewer}
	res := Resource{TenantID: "tenant-1", ResourceType: "entity", ResourceID: "e-1"}

	roles.byIdentity["id-1"] = []*resourcerole.ResourceRole{
		{IdentityID: "id-1", ScopeType: resourcerole.ScopeEntity, ScopeID: "e-1", Role: resourcerole.RoleOperator},
	}

	assert.NoError(t, a.Authorize(context.Background(), p, constant.ActionEntityCreate, res))
}
