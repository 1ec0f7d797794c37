// Package tenant models the top-level isolation boundary every other
// record is owned by.
package tenant

import (
	"context"
	"time"
)

// Tenant is the top-level isolation boundary. VillageTenantCode is the
// stable 16-bit hex tenant code embedded as the TTTT segment of every
// Village-ID minted under it.
type Tenant struct {
	ID                string    `json:"id"`
	VillageTenantCode string    `json:"villageTenantCode"`
	Name              string    `json:"name"`
	IsActive          bool      `json:"isActive"`
	Revision          int64     `json:"revision"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateInput is the payload accepted by the tenant creation endpoint.
type CreateInput struct {
	Name string `json:"name" validate:"required,max=256"`
}

// UpdateInput is the payload accepted by the tenant update endpoint.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,max=256"`
	IsActive *bool   `json:"isActive"`
	Revision int64   `json:"revision" validate:"required"`
}

// Repository persists Tenant rows.
//
//go:generate mockgen --destination=../../gen/mock/tenant/tenant_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	Find(ctx context.Context, id string) (*Tenant, error)
	FindByVillageCode(ctx context.Context, code string) (*Tenant, error)
	FindAll(ctx context.Context, page, perPage int) ([]*Tenant, int64, error)
	UpdateIfRevision(ctx context.Context, id string, revision int64, t *Tenant) (*Tenant, error)
}
