package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/audit"
)

// ListAuditRecords returns a page of audit records matching filter.
func (uc *UseCase) ListAuditRecords(ctx context.Context, p authz.Principal, filter audit.Filter, page, perPage int) ([]*audit.Record, int64, error) {
	res := authz.Resource{TenantID: filter.TenantID, ResourceType: "audit"}

	type result struct {
		items []*audit.Record
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, filter.TenantID, p, constant.ActionAuditRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.AuditRepo.List(ctx, filter, page, perPage)
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
