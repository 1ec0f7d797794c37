// Package organization models nodes in the per-tenant organization tree.
package organization

import (
	"context"
	"time"
)

// Type enumerates the kinds an Organization node may take.
type Type string

const (
	TypeDepartment  Type = "department"
	TypeOrganization Type = "organization"
	TypeTeam        Type = "team"
	TypeCollection  Type = "collection"
	TypeOther       Type = "other"
)

// Organization is a node in the per-tenant tree. ParentID is nil for a root.
type Organization struct {
	ID              string    `json:"id"`
	VillageID       string    `json:"villageId"`
	TenantID        string    `json:"tenantId"`
	ParentID        *string   `json:"parentId"`
	Name            string    `json:"name"`
	Type            Type      `json:"type"`
	OwnerIdentityID string    `json:"ownerIdentityId"`
	OwnerGroupID    *string   `json:"ownerGroupId"`
	LDAPDn          *string   `json:"ldapDn"`
	SAMLGroup       *string   `json:"samlGroup"`
	Revision        int64     `json:"revision"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

// CreateInput is the payload accepted by the organization creation endpoint.
type CreateInput struct {
	ParentID        *string `json:"parentId" validate:"omitempty,uuid"`
	Name            string  `json:"name" validate:"required,max=256"`
	Type            Type    `json:"type" validate:"required,oneof=department organization team collection other"`
	OwnerIdentityID string  `json:"ownerIdentityId" validate:"required,uuid"`
	OwnerGroupID    *string `json:"ownerGroupId" validate:"omitempty,uuid"`
	LDAPDn          *string `json:"ldapDn" validate:"omitempty,max=512"`
	SAMLGroup       *string `json:"samlGroup" validate:"omitempty,max=256"`
}

// UpdateInput is the payload accepted by the organization update endpoint.
// Reparenting (non-nil ParentID change) requires maintainer on both the old
// and new parent, enforced by AuthZ, not by this shape.
type UpdateInput struct {
	ParentID     *string `json:"parentId" validate:"omitempty,uuid"`
	Name         *string `json:"name" validate:"omitempty,max=256"`
	OwnerGroupID *string `json:"ownerGroupId" validate:"omitempty,uuid"`
	Revision     int64   `json:"revision" validate:"required"`
}

// Repository persists Organization rows.
//
//go:generate mockgen --destination=../../gen/mock/organization/organization_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, o *Organization) (*Organization, error)
	Find(ctx context.Context, tenantID, id string) (*Organization, error)
	FindByParent(ctx context.Context, tenantID string, parentID *string) ([]*Organization, error)
	FindAll(ctx context.Context, tenantID string, page, perPage int) ([]*Organization, int64, error)
	HasChildren(ctx context.Context, tenantID, id string) (bool, error)
	UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, o *Organization) (*Organization, error)
	Delete(ctx context.Context, tenantID, id string) error
}
