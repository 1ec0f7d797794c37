// Package entity models inventory objects attached to an organization.
package entity

import (
	"context"
	"time"
)

// Type enumerates the kinds an Entity may take.
type Type string

const (
	TypeCompute       Type = "compute"
	TypeNetwork       Type = "network"
	TypeStorage       Type = "storage"
	TypeDatabase      Type = "database"
	TypeUser          Type = "user"
	TypeSecurityIssue Type = "security_issue"
	TypeService       Type = "service"
	TypeDatacenter    Type = "datacenter"
	TypeVPC           Type = "vpc"
	TypeSubnet        Type = "subnet"
	TypeApplication   Type = "application"
)

// Entity is an inventory object unique under (organization_id, entity_type, name).
type Entity struct {
	ID             string         `json:"id"`
	VillageID      string         `json:"villageId"`
	TenantID       string         `json:"tenantId"`
	OrganizationID string         `json:"organizationId"`
	EntityType     Type           `json:"entityType"`
	Name           string         `json:"name"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	IsActive       bool           `json:"isActive"`
	Revision       int64          `json:"revision"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty"`
}

// CreateInput is the payload accepted by the entity creation endpoint.
type CreateInput struct {
	OrganizationID string         `json:"organizationId" validate:"required,uuid"`
	EntityType     Type           `json:"entityType" validate:"required"`
	Name           string         `json:"name" validate:"required,max=256"`
	Attributes     map[string]any `json:"attributes" validate:"omitempty,dive,keys,keymax=100,endkeys,nonested,valuemax=4000"`
	Tags           []string       `json:"tags" validate:"omitempty,dive,max=64"`
}

// UpdateInput is the payload accepted by the entity update endpoint.
type UpdateInput struct {
	Name       *string        `json:"name" validate:"omitempty,max=256"`
	Attributes map[string]any `json:"attributes" validate:"omitempty,dive,keys,keymax=100,endkeys,nonested,valuemax=4000"`
	Tags       []string       `json:"tags" validate:"omitempty,dive,max=64"`
	IsActive   *bool          `json:"isActive"`
	Revision   int64          `json:"revision" validate:"required"`
}

// Filter narrows FindAll by optional, AND-combined predicates.
type Filter struct {
	OrganizationID string
	EntityType     Type
	Tag            string
}

// Repository persists Entity rows.
//
//go:generate mockgen --destination=../../gen/mock/entity/entity_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, e *Entity) (*Entity, error)
	Find(ctx context.Context, tenantID, id string) (*Entity, error)
	FindAll(ctx context.Context, tenantID string, filter Filter, page, perPage int) ([]*Entity, int64, error)
	FindByOrganizations(ctx context.Context, tenantID string, orgIDs []string) ([]*Entity, error)
	UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, e *Entity) (*Entity, error)
	Delete(ctx context.Context, tenantID, id string) error
}
