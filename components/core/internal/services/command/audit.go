package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
)

// PurgeAuditLog deletes audit records older than olderThan, a
// cross-tenant operation reserved for admins. The deleted count is
// itself audited as the mutation's payload, since the deleted rows
// themselves are gone by commit time.
func (uc *UseCase) PurgeAuditLog(ctx context.Context, p authz.Principal, olderThan time.Time) (int64, error) {
	res := authz.Resource{ResourceType: "audit"}

	var purged int64

	req := mutationRequest("", p, constant.ActionAuditPurge, res, map[string]any{"olderThan": olderThan}, "AuditLog", func(ctx context.Context) (before, after any, err error) {
		purged, err = uc.AuditRepo.Purge(ctx, olderThan)
		if err != nil {
			return nil, nil, err
		}

		return nil, purged, nil
	})
	req.AuditID = func() string { return "purge" }

	if _, err := uc.Pipeline.Mutate(ctx, req); err != nil {
		return 0, err
	}

	return purged, nil
}
