package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
)

// GetEntity fetches a single entity by internal id.
func (uc *UseCase) GetEntity(ctx context.Context, p authz.Principal, tenantID, id string) (*entity.Entity, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead,
		authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "entity"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.EntityRepo.Find(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*entity.Entity), nil
}

// ListEntities returns a page of tenantID's entities matching filter.
func (uc *UseCase) ListEntities(ctx context.Context, p authz.Principal, tenantID string, filter entity.Filter, page, perPage int) ([]*entity.Entity, int64, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: filter.OrganizationID, ResourceType: "entity"}

	type result struct {
		items []*entity.Entity
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.EntityRepo.FindAll(ctx, tenantID, filter, page, perPage)
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
