// Package authz resolves a principal's effective role for a resource and
// authorizes actions against the action table (spec §4.3).
package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
)

// Rank orders roles from weakest to strongest; the effective role is the
// max rank across every grant source (spec §4.3).
type Rank int

const (
	RankViewer Rank = iota
	RankOperator
	RankMaintainer
	RankAdmin
	RankSuperAdmin
)

func portalRank(r identity.PortalRole) Rank {
	switch r {
	case identity.PortalSuperAdmin:
		return RankSuperAdmin
	case identity.PortalAdmin:
		return RankAdmin
	case identity.PortalEditor:
		return RankOperator
	default:
		return RankViewer
	}
}

func resourceRank(r resourcerole.Role) Rank {
	switch r {
	case resourcerole.RoleMaintainer:
		return RankMaintainer
	case resourcerole.RoleOperator:
		return RankOperator
	default:
		return RankViewer
	}
}

// Action identifies an entry in the action table AuthZ consults. Values are
// drawn from the shared constant.Action* catalog so the RPC/HTTP layers and
// AuthZ agree on one closed set of names.
type Action = string

// requiredRank is the minimum effective Rank each Action needs (spec §4.3).
var requiredRank = map[Action]Rank{
	constant.ActionEntityCreate:         RankOperator,
	constant.ActionEntityUpdate:         RankOperator,
	constant.ActionEntityDelete:         RankOperator,
	constant.ActionEntityRead:           RankViewer,
	constant.ActionDependencyCreate:     RankOperator,
	constant.ActionDependencyUpdate:     RankOperator,
	constant.ActionDependencyDelete:     RankOperator,
	constant.ActionOrganizationCreate:   RankOperator,
	constant.ActionOrganizationUpdate:   RankOperator,
	constant.ActionOrganizationReparent: RankMaintainer,
	constant.ActionOrganizationDelete:   RankMaintainer,
	constant.ActionIdentityManage:       RankAdmin,
	constant.ActionTenantConfig:         RankAdmin,
	constant.ActionSyncConfig:           RankAdmin,
	constant.ActionLicensePolicy:        RankAdmin,
	constant.ActionResourceRoleGrant:    RankAdmin,
	constant.ActionIssueWrite:           RankOperator,
	constant.ActionIssueRead:            RankViewer,
	constant.ActionOnCallRead:           RankViewer,
	constant.ActionOnCallWrite:          RankOperator,
	constant.ActionGroupRequest:         RankViewer,
	constant.ActionGroupDecide:          RankOperator,
	constant.ActionGroupManage:          RankOperator,
	constant.ActionAuditRead:            RankAdmin,
	constant.ActionAuditPurge:           RankAdmin,
	constant.ActionSensitiveRead:        RankOperator,
}

// Principal is the authenticated caller AuthZ evaluates decisions against.
type Principal struct {
	IdentityID string
	TenantID   string
	PortalRole identity.PortalRole
}

// Resource is the scoped object an action targets.
type Resource struct {
	TenantID        string
	OrganizationID  string   // owning organization, for entity/dependency scopes
	OrgAncestorIDs  []string // organization ancestor chain, root-first, excluding OrganizationID
	ResourceID      string
	ResourceType    string
}

// OrgHierarchy resolves an organization's ancestor chain; GraphEngine
// supplies the concrete implementation so AuthZ never queries Store directly.
type OrgHierarchy interface {
	AncestorIDs(ctx context.Context, tenantID, organizationID string) ([]string, error)
}

// AuthZ resolves effective roles and authorizes actions.
type AuthZ struct {
	Roles       resourcerole.Repository
	Groups      group.Repository
	Orgs        organization.Repository
	Hierarchy   OrgHierarchy
	memo        *cache.Cache
}

// New builds an AuthZ service backed by the given repositories. memoTTL
// bounds the request-scoped effective-role memo cache (spec SPEC_FULL §4.3);
// callers should use a short TTL (seconds) since the memo must never survive
// past one Pipeline transaction.
func New(roles resourcerole.Repository, groups group.Repository, orgs organization.Repository, hierarchy OrgHierarchy, memoTTL time.Duration) *AuthZ {
	return &AuthZ{
		Roles:     roles,
		Groups:    groups,
		Orgs:      orgs,
		Hierarchy: hierarchy,
		memo:      cache.New(memoTTL, memoTTL),
	}
}

// EffectiveRole resolves p's effective Rank against res, the max across
// global portal role, tenant grant, organization-ancestor grants,
// resource-exact grant, and group-derived grants (spec §4.3).
func (a *AuthZ) EffectiveRole(ctx context.Context, p Principal, res Resource) (Rank, error) {
	memoKey := fmt.Sprintf("%s:%s:%s", p.IdentityID, res.ResourceType, res.ResourceID)
	if v, ok := a.memo.Get(memoKey); ok {
		return v.(Rank), nil
	}

	rank, err := a.resolve(ctx, p, res)
	if err != nil {
		return RankViewer, err
	}

	a.memo.SetDefault(memoKey, rank)

	return rank, nil
}

func (a *AuthZ) resolve(ctx context.Context, p Principal, res Resource) (Rank, error) {
	best := portalRank(p.PortalRole)

	grants, err := a.Roles.FindByIdentity(ctx, p.IdentityID)
	if err != nil {
		return best, common.InternalServerError{Err: err}
	}

	ancestors := res.OrgAncestorIDs
	if ancestors == nil && a.Hierarchy != nil && res.OrganizationID != "" {
		ancestors, err = a.Hierarchy.AncestorIDs(ctx, res.TenantID, res.OrganizationID)
		if err != nil {
			return best, common.InternalServerError{Err: err}
		}
	}

	for _, g := range grants {
		rank := resourceRank(g.Role)
		if rank <= best {
			continue
		}

		switch g.ScopeType {
		case resourcerole.ScopeTenant:
			if g.ScopeID == res.TenantID {
				best = rank
			}
		case resourcerole.ScopeOrganization:
			if g.ScopeID == res.OrganizationID || contains(ancestors, g.ScopeID) {
				best = rank
			}
		case resourcerole.ScopeEntity:
			if g.ScopeID == res.ResourceID {
				best = rank
			}
		}
	}

	if a.Groups != nil {
		groupRank, err := a.groupDerivedRank(ctx, res.TenantID, p.IdentityID, append(append([]string{}, ancestors...), res.OrganizationID))
		if err != nil {
			return best, err
		}

		if groupRank > best {
			best = groupRank
		}
	}

	return best, nil
}

// groupDerivedRank resolves rank from groups that are themselves the
// owner_group_id of an organization in orgIDs (spec §4.3 point 5).
func (a *AuthZ) groupDerivedRank(ctx context.Context, tenantID, identityID string, orgIDs []string) (Rank, error) {
	best := RankViewer

	for _, orgID := range orgIDs {
		if orgID == "" {
			continue
		}

		org, err := a.Orgs.Find(ctx, tenantID, orgID)
		if err != nil || org == nil || org.OwnerGroupID == nil {
			continue
		}

		member, err := a.Groups.IsMember(ctx, *org.OwnerGroupID, identityID)
		if err != nil {
			return best, common.InternalServerError{Err: err}
		}

		if member && RankMaintainer > best {
			best = RankMaintainer
		}
	}

	return best, nil
}

// Authorize checks p against action for res, returning a structured
// ForbiddenError with a deterministic reason code when denied (spec §4.3).
func (a *AuthZ) Authorize(ctx context.Context, p Principal, action Action, res Resource) error {
	if p.IdentityID == "" {
		return common.UnauthenticatedError{Title: "No Principal", Message: "request carries no authenticated principal"}
	}

	if p.TenantID != res.TenantID && portalRank(p.PortalRole) < RankSuperAdmin {
		return common.ForbiddenError{
			EntityType: res.ResourceType,
			Title:      "Cross-Tenant Access Denied",
			Message:    "principal's tenant does not match the resource's tenant",
			Reason:     constant.ReasonCrossTenantDenied,
		}
	}

	need, ok := requiredRank[action]
	if !ok {
		need = RankOperator
	}

	rank, err := a.EffectiveRole(ctx, p, res)
	if err != nil {
		return err
	}

	if rank < need {
		reason := constant.ReasonNoRoleOnScope
		if rank > RankViewer {
			reason = constant.ReasonInsufficientRole
		}

		return common.ForbiddenError{
			EntityType: res.ResourceType,
			Title:      "Insufficient Role",
			Message:    fmt.Sprintf("action %q requires rank %d, principal has %d", action, need, rank),
			Reason:     reason,
		}
	}

	return nil
}

// InvalidateMemo clears the effective-role memo for one Pipeline
// transaction; callers invoke this at transaction end so decisions never
// survive past the snapshot they were computed against.
func (a *AuthZ) InvalidateMemo() {
	a.memo.Flush()
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
