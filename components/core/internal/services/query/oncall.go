package query

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
	"github.com/elder-platform/elder/components/core/internal/oncallresolver"
)

// CurrentOnCall resolves who is on call for scope at instant.
func (uc *UseCase) CurrentOnCall(ctx context.Context, p authz.Principal, tenantID string, scopeType oncall.ScopeType, scopeID string, instant time.Time) (*oncallresolver.Current, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: scopeID, ResourceType: "oncall"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionOnCallRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.OnCall.CurrentOnCall(ctx, tenantID, scopeType, scopeID, instant)
	})
	if err != nil {
		return nil, err
	}

	current, _ := out.(*oncallresolver.Current)

	return current, nil
}

// WhoIsOnCallBetween partitions [from, to) into on-call segments for scope.
func (uc *UseCase) WhoIsOnCallBetween(ctx context.Context, p authz.Principal, tenantID string, scopeType oncall.ScopeType, scopeID string, from, to time.Time) ([]oncallresolver.Segment, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: scopeID, ResourceType: "oncall"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionOnCallRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.OnCall.WhoIsOnCallBetween(ctx, tenantID, scopeType, scopeID, from, to)
	})
	if err != nil {
		return nil, err
	}

	return out.([]oncallresolver.Segment), nil
}

// ListRotations returns scope's configured rotations.
func (uc *UseCase) ListRotations(ctx context.Context, p authz.Principal, tenantID string, scopeType oncall.ScopeType, scopeID string) ([]*oncall.Rotation, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: scopeID, ResourceType: "oncall"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionOnCallRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.OnCallRepo.FindRotationsByScope(ctx, tenantID, scopeType, scopeID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*oncall.Rotation), nil
}
