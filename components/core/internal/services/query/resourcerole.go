package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
)

// ListResourceRolesByIdentity returns every grant held by identityID.
func (uc *UseCase) ListResourceRolesByIdentity(ctx context.Context, p authz.Principal, tenantID, identityID string) ([]*resourcerole.ResourceRole, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "resource_role"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.ResourceRoleRepo.FindByIdentity(ctx, identityID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*resourcerole.ResourceRole), nil
}

// ListResourceRolesByScope returns every grant attached to (scopeType, scopeID).
func (uc *UseCase) ListResourceRolesByScope(ctx context.Context, p authz.Principal, tenantID string, scopeType resourcerole.ScopeType, scopeID string) ([]*resourcerole.ResourceRole, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: scopeID, ResourceType: "resource_role"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.ResourceRoleRepo.FindByScope(ctx, scopeType, scopeID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*resourcerole.ResourceRole), nil
}
