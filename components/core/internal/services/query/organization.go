package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
)

// GetOrganization fetches a single organization by internal id.
func (uc *UseCase) GetOrganization(ctx context.Context, p authz.Principal, tenantID, id string) (*organization.Organization, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: id, ResourceType: "organization"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.OrganizationRepo.Find(ctx, tenantID, id)
	})
	if err != nil {
		return nil, err
	}

	return out.(*organization.Organization), nil
}

// ListOrganizations returns a page of tenantID's organizations.
func (uc *UseCase) ListOrganizations(ctx context.Context, p authz.Principal, tenantID string, page, perPage int) ([]*organization.Organization, int64, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "organization"}

	type result struct {
		items []*organization.Organization
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.OrganizationRepo.FindAll(ctx, tenantID, page, perPage)
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

// ListOrganizationsByParent returns parentID's direct children (parentID
// nil selects tenantID's roots).
func (uc *UseCase) ListOrganizationsByParent(ctx context.Context, p authz.Principal, tenantID string, parentID *string) ([]*organization.Organization, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "organization"}
	if parentID != nil {
		res.OrganizationID = *parentID
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.OrganizationRepo.FindByParent(ctx, tenantID, parentID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*organization.Organization), nil
}
