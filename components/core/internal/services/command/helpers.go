package command

import (
	"context"

	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/pipeline"
)

// mutationRequest builds the common shape every command below hands to
// Pipeline.Mutate, leaving AuditID and InvalidationKeys at their zero
// values for callers that need to set them after construction (creates
// don't know their id until Do runs; some commands invalidate more than
// one cache key).
func mutationRequest(
	tenantID string,
	p authz.Principal,
	action authz.Action,
	res authz.Resource,
	payload any,
	auditEntity string,
	do func(ctx context.Context) (before, after any, err error),
) pipeline.MutationRequest {
	return pipeline.MutationRequest{
		TenantID:    tenantID,
		Principal:   p,
		Action:      action,
		Resource:    res,
		Payload:     payload,
		AuditEntity: auditEntity,
		Do:          do,
	}
}
