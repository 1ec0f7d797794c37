package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
)

func membershipInvalidation(tenantID string) []cacheinvalidator.Key {
	return []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectMembership}}
}

// CreateGroup provisions a new membership group.
func (uc *UseCase) CreateGroup(ctx context.Context, p authz.Principal, tenantID string, in group.CreateGroupInput) (*group.Group, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "group"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionGroupManage, res, in, "Group", func(ctx context.Context) (before, after any, err error) {
		g := &group.Group{
			TenantID:          tenantID,
			Name:              in.Name,
			OwnerIdentityID:   in.OwnerIdentityID,
			ApprovalMode:      in.ApprovalMode,
			ApprovalThreshold: in.ApprovalThreshold,
			Provider:          in.Provider,
			SyncEnabled:       in.SyncEnabled,
			CreatedAt:         time.Now(),
		}

		created, err := uc.GroupRepo.CreateGroup(ctx, g)
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

	return out.(*group.Group), nil
}

// RequestMembership submits a pending access request against g.
func (uc *UseCase) RequestMembership(ctx context.Context, p authz.Principal, tenantID string, g *group.Group, in group.CreateAccessRequestInput) (*group.AccessRequest, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: g.ID, ResourceType: "group"}

	var created *group.AccessRequest

	req := mutationRequest(tenantID, p, constant.ActionGroupRequest, res, in, "AccessRequest", func(ctx context.Context) (before, after any, err error) {
		created, err = uc.Groups.Request(ctx, tenantID, g, in)
		if err != nil {
			return nil, nil, err
		}

		return nil, created, nil
	})
	req.AuditID = func() string {
		if created == nil {
			return ""
		}

		return created.ID
	}

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*group.AccessRequest), nil
}

// DecideMembership records an owner's vote on req and applies g's
// aggregation rule, invalidating membership caches whenever the request
// resolves into Approved.
func (uc *UseCase) DecideMembership(ctx context.Context, p authz.Principal, tenantID string, g *group.Group, accessReq *group.AccessRequest, in group.DecideInput) (*group.AccessRequest, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: g.ID, ResourceType: "group"}

	req := mutationRequest(tenantID, p, constant.ActionGroupDecide, res, in, "AccessRequest", func(ctx context.Context) (before, after any, err error) {
		updated, err := uc.Groups.Decide(ctx, g, accessReq, in)
		if err != nil {
			return nil, nil, err
		}

		return accessReq, updated, nil
	})
	req.AuditID = func() string { return accessReq.ID }
	req.InvalidationKeys = membershipInvalidation(tenantID)

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*group.AccessRequest), nil
}

// ExpireMembership transitions accessReq to Expired, removing any
// membership row it had granted.
func (uc *UseCase) ExpireMembership(ctx context.Context, p authz.Principal, tenantID string, g *group.Group, accessReq *group.AccessRequest) (*group.AccessRequest, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: g.ID, ResourceType: "group"}

	req := mutationRequest(tenantID, p, constant.ActionGroupManage, res, nil, "AccessRequest", func(ctx context.Context) (before, after any, err error) {
		updated, err := uc.Groups.Expire(ctx, g, accessReq)
		if err != nil {
			return nil, nil, err
		}

		return accessReq, updated, nil
	})
	req.AuditID = func() string { return accessReq.ID }
	req.InvalidationKeys = membershipInvalidation(tenantID)

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*group.AccessRequest), nil
}
