package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
)

// GetTenant fetches a single tenant by internal id.
func (uc *UseCase) GetTenant(ctx context.Context, p authz.Principal, id string) (*tenant.Tenant, error) {
	out, err := uc.Pipeline.Query(ctx, id, p, constant.ActionEntityRead,
		authz.Resource{TenantID: id, ResourceType: "tenant"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.TenantRepo.Find(ctx, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*tenant.Tenant), nil
}

// ListTenants returns a page of all tenants (a portal-admin operation, not
// scoped to any single tenant).
func (uc *UseCase) ListTenants(ctx context.Context, p authz.Principal, page, perPage int) ([]*tenant.Tenant, int64, error) {
	res := authz.Resource{ResourceType: "tenant"}

	type result struct {
		items []*tenant.Tenant
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, "", p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.TenantRepo.FindAll(ctx, page, perPage)
		if err != nil {
			return nil, err
		}

		return result{items: items, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	r := out.(result)

	return r.items, r.total, nil
}
