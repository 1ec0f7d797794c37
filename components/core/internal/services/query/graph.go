package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/graph"
)

// Children returns org's descendants, direct or full subtree.
func (uc *UseCase) Children(ctx context.Context, p authz.Principal, tenantID, org string, recursive bool) ([]string, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: org, ResourceType: "organization"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.Children(ctx, org, recursive)
	})
	if err != nil {
		return nil, err
	}

	return out.([]string), nil
}

// Hierarchy returns the root-first path from tenantID's root to org.
func (uc *UseCase) Hierarchy(ctx context.Context, p authz.Principal, tenantID, org string, maxDepth int) ([]string, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: org, ResourceType: "organization"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.Hierarchy(org, maxDepth)
	})
	if err != nil {
		return nil, err
	}

	return out.([]string), nil
}

// Impact performs a depth-capped BFS from entityID in direction over the
// dependency graph (spec §4.4).
func (uc *UseCase) Impact(ctx context.Context, p authz.Principal, tenantID, entityID string, direction graph.ImpactDirection, maxDepth int) ([]graph.ImpactNode, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: entityID, ResourceType: "entity"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.Impact(ctx, entityID, direction, maxDepth)
	})
	if err != nil {
		return nil, err
	}

	return out.([]graph.ImpactNode), nil
}

// Path finds the shortest dependency path from source to target, optionally
// restricted to one edge type.
func (uc *UseCase) Path(ctx context.Context, p authz.Principal, tenantID, source, target string, edgeType dependency.Type) ([]string, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "entity"}

	var filter func(dependency.Type) bool
	if edgeType != "" {
		filter = func(t dependency.Type) bool { return t == edgeType }
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.Path(ctx, source, target, filter)
	})
	if err != nil {
		return nil, err
	}

	return out.([]string), nil
}

// Analyze computes graph-wide metrics over scope (the whole tenant when
// scope is empty).
func (uc *UseCase) Analyze(ctx context.Context, p authz.Principal, tenantID string, scope []string) (*graph.Analysis, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "entity"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.Analyze(ctx, scope, nil)
	})
	if err != nil {
		return nil, err
	}

	return out.(*graph.Analysis), nil
}

// NetworkTopology restricts the graph view to entityIDs and their network
// dependencies.
func (uc *UseCase) NetworkTopology(ctx context.Context, p authz.Principal, tenantID string, entityIDs []string) (*graph.NetworkTopologyResult, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "entity"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionEntityRead, res, nil, func(ctx context.Context) (any, error) {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		return snap.NetworkTopology(entityIDs), nil
	})
	if err != nil {
		return nil, err
	}

	return out.(*graph.NetworkTopologyResult), nil
}
