package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
)

// GetIdentity fetches a single identity by internal id.
func (uc *UseCase) GetIdentity(ctx context.Context, p authz.Principal, tenantID, id string) (*identity.Identity, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead,
		authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "identity"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.IdentityRepo.Find(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*identity.Identity), nil
}

// FindIdentityByUsername resolves an identity by its login name.
func (uc *UseCase) FindIdentityByUsername(ctx context.Context, p authz.Principal, tenantID, username string) (*identity.Identity, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead,
		authz.Resource{TenantID: tenantID, ResourceType: "identity"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.IdentityRepo.FindByUsername(ctx, tenantID, username)
		})
	if err != nil {
		return nil, err
	}

	return out.(*identity.Identity), nil
}

// ListIdentities returns a page of tenantID's identities.
func (uc *UseCase) ListIdentities(ctx context.Context, p authz.Principal, tenantID string, page, perPage int) ([]*identity.Identity, int64, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "identity"}

	type result struct {
		items []*identity.Identity
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.IdentityRepo.FindAll(ctx, tenantID, page, perPage)
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
