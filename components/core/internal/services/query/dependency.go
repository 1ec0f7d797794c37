package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
)

// GetDependency fetches a single dependency edge by internal id.
func (uc *UseCase) GetDependency(ctx context.Context, p authz.Principal, tenantID, id string) (*dependency.Dependency, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead,
		authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "dependency"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.DependencyRepo.Find(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*dependency.Dependency), nil
}

// ListDependencies returns every dependency edge in tenantID.
func (uc *UseCase) ListDependencies(ctx context.Context, p authz.Principal, tenantID string) ([]*dependency.Dependency, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "dependency"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.DependencyRepo.FindByTenant(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*dependency.Dependency), nil
}
