package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
)

// CreateIdentity mints a Village-ID and provisions a new principal.
// Identities are not organization-scoped, so the allocator is called with
// an empty organization segment.
func (uc *UseCase) CreateIdentity(ctx context.Context, p authz.Principal, tenantID string, in identity.CreateInput) (*identity.Identity, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "identity"}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionIdentityManage, res, in, "Identity", func(ctx context.Context) (before, after any, err error) {
		villageID, err := uc.IDs.Allocate(ctx, villageid.KindIdentity, tenantID, "")
		if err != nil {
			return nil, nil, err
		}

		i := &identity.Identity{
			TenantID:     tenantID,
			VillageID:    villageID,
			Username:     in.Username,
			Email:        in.Email,
			IdentityType: in.IdentityType,
			AuthProvider: in.AuthProvider,
			PortalRole:   in.PortalRole,
			IsActive:     true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		created, err := uc.IdentityRepo.Create(ctx, i)
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

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*identity.Identity), nil
}

// UpdateIdentity applies a CAS update to an identity's portal role, active
// and MFA flags.
func (uc *UseCase) UpdateIdentity(ctx context.Context, p authz.Principal, tenantID, id string, in identity.UpdateInput) (*identity.Identity, error) {
	current, err := uc.IdentityRepo.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	res := authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "identity"}

	req := mutationRequest(tenantID, p, constant.ActionIdentityManage, res, in, "Identity", func(ctx context.Context) (before, after any, err error) {
		updated := *current

		if in.PortalRole != nil {
			updated.PortalRole = *in.PortalRole
		}

		if in.IsActive != nil {
			updated.IsActive = *in.IsActive
		}

		if in.MFAEnabled != nil {
			updated.MFAEnabled = *in.MFAEnabled
		}

		after2, err := uc.IdentityRepo.UpdateIfRevision(ctx, tenantID, id, in.Revision, &updated)
		if err != nil {
			return nil, nil, err
		}

		return current, after2, nil
	})
	req.AuditID = func() string { return id }

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*identity.Identity), nil
}
