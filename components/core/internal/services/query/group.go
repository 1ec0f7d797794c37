package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
)

// GetGroup fetches a single group by internal id.
func (uc *UseCase) GetGroup(ctx context.Context, p authz.Principal, tenantID, id string) (*group.Group, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionGroupRequest,
		authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "group"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.GroupRepo.FindGroup(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*group.Group), nil
}

// GetAccessRequest fetches a single access request by internal id.
func (uc *UseCase) GetAccessRequest(ctx context.Context, p authz.Principal, tenantID, id string) (*group.AccessRequest, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionGroupRequest,
		authz.Resource{TenantID: tenantID, ResourceType: "group"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.GroupRepo.FindAccessRequest(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*group.AccessRequest), nil
}

// ListGroupMembers returns groupID's current members.
func (uc *UseCase) ListGroupMembers(ctx context.Context, p authz.Principal, tenantID, groupID string) ([]*group.Member, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: groupID, ResourceType: "group"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionGroupRequest, res, nil, func(ctx context.Context) (any, error) {
		return uc.GroupRepo.Members(ctx, groupID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*group.Member), nil
}

// ListAccessRequestDecisions returns every owner decision recorded against requestID.
func (uc *UseCase) ListAccessRequestDecisions(ctx context.Context, p authz.Principal, tenantID, requestID string) ([]*group.Decision, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "group"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionGroupRequest, res, nil, func(ctx context.Context) (any, error) {
		return uc.GroupRepo.Decisions(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*group.Decision), nil
}
