// Package dependency models directed edges between entities in the same
// tenant; the subset restricted to the hard edge types must stay acyclic.
package dependency

import (
	"context"
	"time"
)

// Type enumerates the kinds a Dependency edge may take.
type Type string

const (
	TypeRuntime     Type = "runtime"
	TypeNetwork     Type = "network"
	TypeApplication Type = "application"
	TypeDatabase    Type = "database"
	TypeRelated     Type = "related"
	TypeParentOf    Type = "parent_of"
)

// HardTypes is the subset of edge types whose subgraph must remain a DAG.
var HardTypes = map[Type]bool{
	TypeRuntime:     true,
	TypeNetwork:     true,
	TypeApplication: true,
	TypeDatabase:    true,
}

// IsHard reports whether t belongs to the hard (must-stay-acyclic) subgraph.
func (t Type) IsHard() bool {
	return HardTypes[t]
}

// Dependency is a directed edge between two entities in the same tenant.
type Dependency struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenantId"`
	SourceEntityID string         `json:"sourceEntityId"`
	TargetEntityID string         `json:"targetEntityId"`
	DependencyType Type           `json:"dependencyType"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Revision       int64          `json:"revision"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// CreateInput is the payload accepted by the dependency creation endpoint.
type CreateInput struct {
	SourceEntityID string         `json:"sourceEntityId" validate:"required,uuid"`
	TargetEntityID string         `json:"targetEntityId" validate:"required,uuid"`
	DependencyType Type           `json:"dependencyType" validate:"required"`
	Metadata       map[string]any `json:"metadata" validate:"omitempty,dive,keys,keymax=100,endkeys,nonested,valuemax=4000"`
}

// Repository persists Dependency rows.
//
//go:generate mockgen --destination=../../gen/mock/dependency/dependency_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, d *Dependency) (*Dependency, error)
	Find(ctx context.Context, tenantID, id string) (*Dependency, error)
	FindByTenant(ctx context.Context, tenantID string) ([]*Dependency, error)
	FindBySourceTarget(ctx context.Context, tenantID, sourceID, targetID string, depType Type) (*Dependency, error)
	Delete(ctx context.Context, tenantID, id string) error
}
