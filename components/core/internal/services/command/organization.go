package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
)

// CreateOrganization validates the parent exists (when given), mints a
// Village-ID, and inserts the new node.
func (uc *UseCase) CreateOrganization(ctx context.Context, p authz.Principal, tenantID string, in organization.CreateInput) (*organization.Organization, error) {
	res := authz.Resource{TenantID: tenantID, OrganizationID: derefOr(in.ParentID, ""), ResourceType: "organization"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionOrganizationCreate, res, in, "Organization", func(ctx context.Context) (before, after any, err error) {
		villageID, err := uc.IDs.Allocate(ctx, villageid.KindOrganization, tenantID, derefOr(in.ParentID, ""))
		if err != nil {
			return nil, nil, err
		}

		org := &organization.Organization{
			TenantID:        tenantID,
			VillageID:       villageID,
			ParentID:        in.ParentID,
			Name:            in.Name,
			Type:            in.Type,
			OwnerIdentityID: in.OwnerIdentityID,
			OwnerGroupID:    in.OwnerGroupID,
			LDAPDn:          in.LDAPDn,
			SAMLGroup:       in.SAMLGroup,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		created, err := uc.OrganizationRepo.Create(ctx, org)
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
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectOrgTree}}

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	uc.Graph.Invalidate(tenantID)

	return out.(*organization.Organization), nil
}

// UpdateOrganization applies a CAS update, optionally reparenting the node.
// Reparenting requires maintainer on both the current and the target
// parent: each non-root parent is authorized here before the mutation, and
// Pipeline.Mutate then authorizes the node being moved (spec §4.3).
func (uc *UseCase) UpdateOrganization(ctx context.Context, p authz.Principal, tenantID, id string, in organization.UpdateInput) (*organization.Organization, error) {
	current, err := uc.OrganizationRepo.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	action := constant.ActionOrganizationUpdate
	if in.ParentID != nil && derefOr(current.ParentID, "") != *in.ParentID {
		action = constant.ActionOrganizationReparent

		for _, parentID := range []string{derefOr(current.ParentID, ""), *in.ParentID} {
			if parentID == "" {
				continue
			}

			parentRes := authz.Resource{TenantID: tenantID, OrganizationID: parentID, ResourceType: "organization"}
			if err := uc.Pipeline.AuthZ.Authorize(ctx, p, action, parentRes); err != nil {
				return nil, err
			}
		}

		if err := uc.checkCycleFreeReparent(ctx, tenantID, id, *in.ParentID); err != nil {
			return nil, err
		}
	}

	res := authz.Resource{TenantID: tenantID, OrganizationID: id, ResourceType: "organization"}

	req := mutationRequest(tenantID, p, action, res, in, "Organization", func(ctx context.Context) (before, after any, err error) {
		updated := *current

		if in.ParentID != nil {
			updated.ParentID = in.ParentID
		}

		if in.Name != nil {
			updated.Name = *in.Name
		}

		if in.OwnerGroupID != nil {
			updated.OwnerGroupID = in.OwnerGroupID
		}

		after2, err := uc.OrganizationRepo.UpdateIfRevision(ctx, tenantID, id, in.Revision, &updated)
		if err != nil {
			return nil, nil, err
		}

		return current, after2, nil
	})
	req.AuditID = func() string { return id }
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectOrgTree}}

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	uc.Graph.Invalidate(tenantID)

	return out.(*organization.Organization), nil
}

// DeleteOrganization removes a childless organization node.
func (uc *UseCase) DeleteOrganization(ctx context.Context, p authz.Principal, tenantID, id string) error {
	hasChildren, err := uc.OrganizationRepo.HasChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if hasChildren {
		return common.EntityConflictError{
			EntityType: "Organization",
			Title:      "Organization Has Children",
			Message:    "an organization with child nodes cannot be deleted",
			Reason:     common.ConflictDependentExists,
		}
	}

	res := authz.Resource{TenantID: tenantID, OrganizationID: id, ResourceType: "organization"}

	req := mutationRequest(tenantID, p, constant.ActionOrganizationDelete, res, nil, "Organization", func(ctx context.Context) (before, after any, err error) {
		current, findErr := uc.OrganizationRepo.Find(ctx, tenantID, id)
		if findErr != nil {
			return nil, nil, findErr
		}

		if err := uc.OrganizationRepo.Delete(ctx, tenantID, id); err != nil {
			return nil, nil, err
		}

		return current, nil, nil
	})
	req.AuditID = func() string { return id }
	req.InvalidationKeys = []cacheinvalidator.Key{{TenantID: tenantID, Subject: cacheinvalidator.SubjectOrgTree}}

	if _, err := uc.Pipeline.Mutate(ctx, req); err != nil {
		return err
	}

	uc.Graph.Invalidate(tenantID)

	return nil
}

// checkCycleFreeReparent rejects a reparent that would make newParentID a
// descendant of id (the org tree, like the hard dependency subgraph, must
// stay acyclic).
func (uc *UseCase) checkCycleFreeReparent(ctx context.Context, tenantID, id, newParentID string) error {
	if id == newParentID {
		return common.EntityConflictError{
			EntityType: "Organization",
			Title:      "Would Create Cycle",
			Message:    "an organization cannot be its own parent",
			Reason:     common.ConflictCycle,
		}
	}

	snap, err := uc.Graph.Snapshot(ctx, tenantID)
	if err != nil {
		return err
	}

	ancestors, err := snap.Hierarchy(newParentID, 64)
	if err != nil {
		return err
	}

	for _, a := range ancestors {
		if a == id {
			return common.EntityConflictError{
				EntityType: "Organization",
				Title:      "Would Create Cycle",
				Message:    "new parent is a descendant of the organization being reparented",
				Reason:     common.ConflictCycle,
				Path:       ancestors,
			}
		}
	}

	return nil
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}

	return *s
}
