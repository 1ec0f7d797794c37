// Package identity models principals: humans and service accounts.
package identity

import (
	"context"
	"time"
)

// Kind distinguishes a human from an automated principal.
type Kind string

const (
	KindHuman          Kind = "human"
	KindServiceAccount Kind = "service_account"
)

// PortalRole is the identity's global role, the weakest of the five ranks
// resolved by AuthZ's max-rank rule.
type PortalRole string

const (
	PortalViewer      PortalRole = "viewer"
	PortalEditor      PortalRole = "editor"
	PortalAdmin       PortalRole = "admin"
	PortalSuperAdmin  PortalRole = "super_admin"
)

// Identity is a principal: a human user or a service account.
type Identity struct {
	ID                   string     `json:"id"`
	VillageID            string     `json:"villageId"`
	TenantID             string     `json:"tenantId"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	IdentityType         Kind       `json:"identityType"`
	AuthProvider         string     `json:"authProvider"`
	PortalRole           PortalRole `json:"portalRole"`
	IsActive             bool       `json:"isActive"`
	MFAEnabled           bool       `json:"mfaEnabled"`
	CredentialFingerprint string    `json:"-"`
	Revision             int64      `json:"revision"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// CreateInput is the payload accepted by the identity creation endpoint.
// Creating/updating identities requires admin (spec §4.3).
type CreateInput struct {
	Username     string     `json:"username" validate:"required,max=256"`
	Email        string     `json:"email" validate:"required,email"`
	IdentityType Kind       `json:"identityType" validate:"required,oneof=human service_account"`
	AuthProvider string     `json:"authProvider" validate:"required,max=64"`
	PortalRole   PortalRole `json:"portalRole" validate:"required,oneof=viewer editor admin super_admin"`
}

// UpdateInput is the payload accepted by the identity update endpoint.
type UpdateInput struct {
	PortalRole *PortalRole `json:"portalRole" validate:"omitempty,oneof=viewer editor admin super_admin"`
	IsActive   *bool       `json:"isActive"`
	MFAEnabled *bool       `json:"mfaEnabled"`
	Revision   int64       `json:"revision" validate:"required"`
}

// Repository persists Identity rows.
//
//go:generate mockgen --destination=../../gen/mock/identity/identity_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, i *Identity) (*Identity, error)
	Find(ctx context.Context, tenantID, id string) (*Identity, error)
	FindByUsername(ctx context.Context, tenantID, username string) (*Identity, error)
	FindByCredentialFingerprint(ctx context.Context, fingerprint string) (*Identity, error)
	FindAll(ctx context.Context, tenantID string, page, perPage int) ([]*Identity, int64, error)
	UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, i *Identity) (*Identity, error)
}
