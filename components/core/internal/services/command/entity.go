package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
)

// CreateEntity mints a Village-ID and inserts a new inventory object.
func (uc *UseCase) CreateEntity(ctx context.Context, p authz.Principal, tenantID string, in entity.CreateInput) (*entity.Entity, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: in.OrganizationID, ResourceType: "entity"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionEntityCreate, res, in, "Entity", func(ctx context.Context) (before, after any, err error) {
		villageID, err := uc.IDs.Allocate(ctx, villageid.KindEntity, tenantID, in.OrganizationID)
		if err != nil {
			return nil, nil, err
		}

		e := &entity.Entity{
			TenantID:       tenantID,
			VillageID:      villageID,
			OrganizationID: in.OrganizationID,
			EntityType:     in.EntityType,
			Name:           in.Name,
			Attributes:     in.Attributes,
			Tags:           in.Tags,
			IsActive:       true,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}

		created, err := uc.EntityRepo.Create(ctx, e)
		if err != nil {
			return nil, nil, err
		}

		if err := uc.IDs.BindInternalID(ctx, villageID, created.ID); err != nil {
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

	return out.(*entity.Entity), nil
}

// UpdateEntity applies a CAS update to an entity's mutable fields.
func (uc *UseCase) UpdateEntity(ctx context.Context, p authz.Principal, tenantID, id string, in entity.UpdateInput) (*entity.Entity, error) {
	current, err := uc.EntityRepo.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	res := authz.Resource{TenantID: tenantID, OrganizationID: current.OrganizationID, ResourceID: id, ResourceType: "entity"}

	req := mutationRequest(tenantID, p, constant.ActionEntityUpdate, res, in, "Entity", func(ctx context.Context) (before, after any, err error) {
		updated := *current

		if in.Name != nil {
			updated.Name = *in.Name
		}

		if in.Attributes != nil {
			updated.Attributes = in.Attributes
		}

		if in.Tags != nil {
			updated.Tags = in.Tags
		}

		if in.IsActive != nil {
			updated.IsActive = *in.IsActive
		}

		after2, err := uc.EntityRepo.UpdateIfRevision(ctx, tenantID, id, in.Revision, &updated)
		if err != nil {
			return nil, nil, err
		}

		return current, after2, nil
	})
	req.AuditID = func() string { return id }
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectEntityGraph}}

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	uc.Graph.Invalidate(tenantID)

	return out.(*entity.Entity), nil
}

// DeleteEntity soft-deletes an entity.
func (uc *UseCase) DeleteEntity(ctx context.Context, p authz.Principal, tenantID, id string) error {
	current, err := uc.EntityRepo.Find(ctx, tenantID, id)
	if err != nil {
		return err
	}

	res := authz.Resource{TenantID: tenantID, OrganizationID: current.OrganizationID, ResourceID: id, ResourceType: "entity"}

	req := mutationRequest(tenantID, p, constant.ActionEntityDelete, res, nil, "Entity", func(ctx context.Context) (before, after any, err error) {
		if err := uc.EntityRepo.Delete(ctx, tenantID, id); err != nil {
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
