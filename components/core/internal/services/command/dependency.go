package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
)

// CreateDependency inserts a directed edge between two entities, running
// an incremental cycle check against the hard subgraph first when the
// edge type belongs to it (spec §4.4 add_edge).
func (uc *UseCase) CreateDependency(ctx context.Context, p authz.Principal, tenantID string, in dependency.CreateInput) (*dependency.Dependency, error) {
	if in.SourceEntityID == in.TargetEntityID {
		return nil, common.ValidationError{Title: "Invalid Dependency", Message: "source and target entity must differ"}
	}

	if existing, err := uc.DependencyRepo.FindBySourceTarget(ctx, tenantID, in.SourceEntityID, in.TargetEntityID, in.DependencyType); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, common.EntityConflictError{
			EntityType: "Dependency",
			Title:      "Duplicate Dependency",
			Message:    "a dependency of this type already exists between these entities",
			Reason:     common.ConflictUnique,
		}
	}

	if in.DependencyType.IsHard() {
		snap, err := uc.Graph.Snapshot(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		if err := snap.AddEdgeCheck(ctx, in.SourceEntityID, in.TargetEntityID, in.DependencyType); err != nil {
			return nil, err
		}
	}

	res := authz.Resource{TenantID: tenantID, ResourceType: "dependency"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionDependencyCreate, res, in, "Dependency", func(ctx context.Context) (before, after any, err error) {
		d := &dependency.Dependency{
			TenantID:       tenantID,
			SourceEntityID: in.SourceEntityID,
			TargetEntityID: in.TargetEntityID,
			DependencyType: in.DependencyType,
			Metadata:       in.Metadata,
			CreatedAt:      time.Now(),
		}

		created, err := uc.DependencyRepo.Create(ctx, d)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectEntityGraph}}

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	uc.Graph.Invalidate(tenantID)

	return out.(*dependency.Dependency), nil
}

// DeleteDependency removes a dependency edge.
func (uc *UseCase) DeleteDependency(ctx context.Context, p authz.Principal, tenantID, id string) error {
	current, err := uc.DependencyRepo.Find(ctx, tenantID, id)
	if err != nil {
		return err
	}

	res := authz.Resource{TenantID: tenantID, ResourceType: "dependency"}

	req := mutationRequest(tenantID, p, constant.ActionDependencyDelete, res, nil, "Dependency", func(ctx context.Context) (before, after any, err error) {
		if err := uc.DependencyRepo.Delete(ctx, tenantID, id); err != nil {
			return nil, nil, err
		}

		return current, nil, nil
	})
	req.AuditID = func() string { return id }
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectEntityGraph}}

	if _, err := uc.Pipeline.Mutate(ctx, req); err != nil {
		return err
	}

	uc.Graph.Invalidate(tenantID)

	return nil
}
