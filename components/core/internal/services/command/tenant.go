package command

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
)

// CreateTenant mints a fresh village tenant code and inserts the new
// tenant. Tenant creation cannot go through IDAllocator like every other
// Village-ID segment, since the code being generated here *is* the TTTT
// segment IDAllocator will embed in every subsequent allocation for this
// tenant — so a plain random 4-hex-digit code with a collision retry is
// generated directly instead.
func (uc *UseCase) CreateTenant(ctx context.Context, p authz.Principal, in tenant.CreateInput) (*tenant.Tenant, error) {
	res := authz.Resource{ResourceType: "tenant"}

	var createdID string

	req := mutationRequest("", p, constant.ActionTenantConfig, res, in, "Tenant", func(ctx context.Context) (before, after any, err error) {
		code, err := uc.nextTenantCode(ctx)
		if err != nil {
			return nil, nil, err
		}

		t := &tenant.Tenant{
			VillageTenantCode: code,
			Name:              in.Name,
			IsActive:          true,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}

		created, err := uc.TenantRepo.Create(ctx, t)
		if err != nil {
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

	return out.(*tenant.Tenant), nil
}

// UpdateTenant applies a CAS update to a tenant's name/active flag.
func (uc *UseCase) UpdateTenant(ctx context.Context, p authz.Principal, id string, in tenant.UpdateInput) (*tenant.Tenant, error) {
	current, err := uc.TenantRepo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	res := authz.Resource{TenantID: id, ResourceType: "tenant"}

	req := mutationRequest(id, p, constant.ActionTenantConfig, res, in, "Tenant", func(ctx context.Context) (before, after any, err error) {
		updated := *current

		if in.Name != nil {
			updated.Name = *in.Name
		}

		if in.IsActive != nil {
			updated.IsActive = *in.IsActive
		}

		after2, err := uc.TenantRepo.UpdateIfRevision(ctx, id, in.Revision, &updated)
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

	return out.(*tenant.Tenant), nil
}

const maxTenantCodeAttempts = 16

func (uc *UseCase) nextTenantCode(ctx context.Context) (string, error) {
	for i := 0; i < maxTenantCodeAttempts; i++ {
		buf := make([]byte, 2)
		if _, err := rand.Read(buf); err != nil {
			return "", common.InternalServerError{Err: err}
		}

		code := hex.EncodeToString(buf)

		exists, err := uc.TenantRepo.FindByVillageCode(ctx, code)
		if err != nil {
			if _, isNotFound := err.(common.EntityNotFoundError); isNotFound {
				return code, nil
			}

			return "", err
		}

		if exists == nil {
			return code, nil
		}
	}

	return "", common.InternalServerError{Message: "exhausted tenant code generation attempts"}
}
