// Package idallocator mints and resolves Village-IDs, Elder's stable,
// hierarchical, cross-service resource identifier.
package idallocator

import (
	"context"
	"fmt"
	"strings"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
)

// Resolution is the result of resolving a Village-ID.
type Resolution struct {
	Kind        villageid.Kind
	InternalID  string
	RedirectURL string
}

// Allocator mints and resolves Village-IDs. All methods must run inside the
// caller's Store transaction so the counter increment is exactly-once per
// commit (spec §4.2).
type Allocator struct {
	Repo villageid.Repository
}

// New builds an Allocator backed by repo.
func New(repo villageid.Repository) *Allocator {
	return &Allocator{Repo: repo}
}

// Allocate atomically increments the (tenant, organization) counter and
// returns a fresh Village-ID of the form TTTT-OOOO-IIIIIIII. organizationID
// is empty for tenant-level or non-org resources, which yields an OOOO
// segment of 0000.
func (a *Allocator) Allocate(ctx context.Context, kind villageid.Kind, tenantID, organizationID string) (string, error) {
	tenantCode, err := a.Repo.TenantCode(ctx, tenantID)
	if err != nil {
		return "", common.EntityNotFoundError{
			EntityType: "Tenant",
			Kind:       common.NotFoundUnknownTenant,
			Message:    "tenant has no allocated village code",
			Err:        err,
		}
	}

	orgCode := "0000"

	if organizationID != "" {
		orgCode, err = a.Repo.OrganizationCode(ctx, tenantID, organizationID)
		if err != nil {
			return "", common.EntityNotFoundError{
				EntityType: "Organization",
				Kind:       common.NotFoundResourceMissing,
				Message:    "organization has no allocated village code",
				Err:        err,
			}
		}
	}

	counter, err := a.Repo.NextCounter(ctx, tenantCode, orgCode)
	if err != nil {
		return "", common.InternalServerError{Err: err}
	}

	villageID := fmt.Sprintf("%s-%s-%08x", tenantCode, orgCode, counter)

	if err := a.Repo.Insert(ctx, villageid.Lookup{VillageID: villageID, Kind: kind, InternalID: ""}); err != nil {
		return "", common.InternalServerError{Err: err}
	}

	return villageID, nil
}

// BindInternalID finalizes the lookup row once the caller knows the newly
// created row's internal primary key (the two-step shape lets the caller
// allocate the Village-ID before the row itself exists, matching typical
// INSERT...RETURNING id flows).
func (a *Allocator) BindInternalID(ctx context.Context, villageID, internalID string) error {
	lookup, err := a.Repo.Resolve(ctx, villageID)
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	return a.Repo.Insert(ctx, villageid.Lookup{VillageID: villageID, Kind: lookup.Kind, InternalID: internalID})
}

// Resolve validates the pattern and returns the resource kind, internal ID,
// and canonical redirect path for villageID (spec §4.2).
func (a *Allocator) Resolve(ctx context.Context, villageIDStr string) (*Resolution, error) {
	if !IsWellFormed(villageIDStr) {
		return nil, common.ValidationError{
			Title:   "Malformed Village-ID",
			Message: "village_id must match TTTT-OOOO-IIIIIIII (hex)",
		}
	}

	normalized := strings.ToLower(villageIDStr)

	lookup, err := a.Repo.Resolve(ctx, normalized)
	if err != nil {
		return nil, common.EntityNotFoundError{
			EntityType: "VillageID",
			Kind:       common.NotFoundVillageIDUnknown,
			Message:    "no resource is registered under this village_id",
			Err:        err,
		}
	}

	tenantCode := normalized[0:4]

	exists, err := a.Repo.TenantCodeExists(ctx, tenantCode)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if !exists {
		return nil, common.EntityNotFoundError{
			EntityType: "Tenant",
			Kind:       common.NotFoundUnknownTenant,
			Message:    "village_id's tenant segment does not match a live tenant",
		}
	}

	return &Resolution{
		Kind:        lookup.Kind,
		InternalID:  lookup.InternalID,
		RedirectURL: fmt.Sprintf("/%s/%s", lookup.Kind.URLSegment(), lookup.InternalID),
	}, nil
}

// IsWellFormed reports whether s matches the Village-ID pattern,
// case-insensitively.
func IsWellFormed(s string) bool {
	return common.IsVillageID(s)
}
