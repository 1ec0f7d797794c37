package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
)

func onCallInvalidation(tenantID string) []cacheinvalidator.Key {
	return []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectOnCall}}
}

// CreateRotation registers a new on-call rotation for a scope.
func (uc *UseCase) CreateRotation(ctx context.Context, p authz.Principal, tenantID string, in oncall.CreateRotationInput) (*oncall.Rotation, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "oncall_rotation"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionOnCallWrite, res, in, "Rotation", func(ctx context.Context) (before, after any, err error) {
		r := &oncall.Rotation{
			TenantID:    tenantID,
			ScopeType:   in.ScopeType,
			ScopeID:     in.ScopeID,
			Priority:    in.Priority,
			CronExpr:    in.CronExpr,
			CreatedAt:   time.Now(),
		}

		created, err := uc.OnCallRepo.CreateRotation(ctx, r)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }
	req.InvalidationKeys = onCallInvalidation(tenantID)

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*oncall.Rotation), nil
}

// AddShift appends an explicit shift to a rotation.
func (uc *UseCase) AddShift(ctx context.Context, p authz.Principal, tenantID, rotationID string, in oncall.CreateShiftInput) (*oncall.Shift, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "oncall_rotation", ResourceID: rotationID}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionOnCallWrite, res, in, "Shift", func(ctx context.Context) (before, after any, err error) {
		s := &oncall.Shift{
			RotationID: rotationID,
			IdentityID: in.IdentityID,
			Start:      in.Start,
			End:        in.End,
		}

		created, err := uc.OnCallRepo.AddShift(ctx, s)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }
	req.InvalidationKeys = onCallInvalidation(tenantID)

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*oncall.Shift), nil
}

// CreateOverride installs a temporary override that supersedes regular
// shifts for its window, regardless of rotation priority.
func (uc *UseCase) CreateOverride(ctx context.Context, p authz.Principal, tenantID string, in oncall.CreateOverrideInput, scopeType oncall.ScopeType, scopeID string) (*oncall.Override, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "oncall_override"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionOnCallWrite, res, in, "Override", func(ctx context.Context) (before, after any, err error) {
		o := &oncall.Override{
			TenantID:   tenantID,
			ScopeType:  scopeType,
			ScopeID:    scopeID,
			IdentityID: in.IdentityID,
			Start:      in.Start,
			End:        in.End,
			Reason:     in.Reason,
			CreatedAt:  time.Now(),
		}

		created, err := uc.OnCallRepo.CreateOverride(ctx, o)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }
	req.InvalidationKeys = onCallInvalidation(tenantID)

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*oncall.Override), nil
}
