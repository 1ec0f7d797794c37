// Package oncall models rotations, their shifts, and overrides that
// determine the currently on-call identity for a scope.
package oncall

import (
	"context"
	"time"
)

// ScopeType names the kind of scope a rotation covers.
type ScopeType string

const (
	ScopeOrganization ScopeType = "organization"
	ScopeService      ScopeType = "service"
)

// Rotation is an ordered sequence of shifts for one scope. Priority breaks
// ties when more than one rotation's shift covers the same instant
// (smallest priority then smallest ID wins — an Open Question resolution,
// see DESIGN.md).
type Rotation struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	ScopeType ScopeType `json:"scopeType"`
	ScopeID   string    `json:"scopeId"`
	Priority  int       `json:"priority"`
	// CronExpr, when set, generates Shifts on demand for a queried window
	// instead of the caller maintaining an explicit shift list (sugar over
	// the explicit-shift wire format, see SPEC_FULL.md §4.5).
	CronExpr     string        `json:"cronExpr,omitempty"`
	ShiftLength  time.Duration `json:"shiftLengthMs,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Shift is one concrete, explicit on-call window within a Rotation.
type Shift struct {
	ID         string    `json:"id"`
	RotationID string    `json:"rotationId"`
	IdentityID string    `json:"identityId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Override supersedes regular shifts when its window overlaps the query
// instant, regardless of rotation priority.
type Override struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	ScopeType  ScopeType `json:"scopeType"`
	ScopeID    string    `json:"scopeId"`
	IdentityID string    `json:"identityId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateRotationInput is the payload accepted by the rotation creation endpoint.
type CreateRotationInput struct {
	ScopeType ScopeType `json:"scopeType" validate:"required,oneof=organization service"`
	ScopeID   string    `json:"scopeId" validate:"required,uuid"`
	Priority  int       `json:"priority" validate:"min=0"`
	CronExpr  string    `json:"cronExpr" validate:"omitempty"`
}

// CreateShiftInput is the payload accepted by the shift creation endpoint.
type CreateShiftInput struct {
	IdentityID string    `json:"identityId" validate:"required,uuid"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtfield=Start"`
}

// CreateOverrideInput is the payload accepted by the override creation endpoint.
type CreateOverrideInput struct {
	IdentityID string    `json:"identityId" validate:"required,uuid"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtfield=Start"`
	Reason     string    `json:"reason" validate:"max=512"`
}

// Repository persists rotations, their shifts, and overrides.
//
//go:generate mockgen --destination=../../gen/mock/oncall/oncall_mock.go --package=mock . Repository
type Repository interface {
	CreateRotation(ctx context.Context, r *Rotation) (*Rotation, error)
	FindRotationsByScope(ctx context.Context, tenantID string, scopeType ScopeType, scopeID string) ([]*Rotation, error)
	AddShift(ctx context.Context, s *Shift) (*Shift, error)
	FindShiftsByRotation(ctx context.Context, rotationID string, windowStart, windowEnd time.Time) ([]*Shift, error)
	CreateOverride(ctx context.Context, o *Override) (*Override, error)
	FindOverridesByScope(ctx context.Context, tenantID string, scopeType ScopeType, scopeID string, windowStart, windowEnd time.Time) ([]*Override, error)
}
