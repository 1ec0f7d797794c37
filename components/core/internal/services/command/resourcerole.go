package command

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
)

// GrantResourceRole attaches a role grant to an identity at a scope.
// Authorizing the grant itself already requires admin (spec §4.3); the
// AuthZ memo Pipeline.Mutate clears afterward picks up the new grant on
// the next EffectiveRole call.
func (uc *UseCase) GrantResourceRole(ctx context.Context, p authz.Principal, tenantID string, in resourcerole.CreateInput) (*resourcerole.ResourceRole, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "resource_role"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionResourceRoleGrant, res, in, "ResourceRole", func(ctx context.Context) (before, after any, err error) {
		r := &resourcerole.ResourceRole{
			IdentityID: in.IdentityID,
			ScopeType:  in.ScopeType,
			ScopeID:    in.ScopeID,
			Role:       in.Role,
		}

		created, err := uc.ResourceRoleRepo.Create(ctx, r)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*resourcerole.ResourceRole), nil
}

// RevokeResourceRole removes a role grant.
func (uc *UseCase) RevokeResourceRole(ctx context.Context, p authz.Principal, tenantID, id string) error {
	res := authz.Resource{TenantID: tenantID, ResourceType: "resource_role"}

	req := mutationRequest(tenantID, p, constant.ActionResourceRoleGrant, res, nil, "ResourceRole", func(ctx context.Context) (before, after any, err error) {
		if err := uc.ResourceRoleRepo.Delete(ctx, id); err != nil {
			return nil, nil, err
		}

		return nil, nil, nil
	})
	req.AuditID = func() string { return id }

	_, err := uc.Pipeline.Mutate(ctx, req)

	return err
}
