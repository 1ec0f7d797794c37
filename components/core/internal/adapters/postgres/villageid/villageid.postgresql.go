// Package villageid is the Postgres-backed villageid.Repository: the
// village_id lookup table plus the per-(tenant,organization) counters
// idallocator.Allocator increments.
package villageid

import (
	"context"
	"database/sql"
	"errors"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/villageid"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const (
	counterTable = "village_id_counter"
	lookupTable  = "village_id_lookup"
)

// Repository is the Postgres-backed villageid.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// NextCounter atomically increments and returns the counter for
// (tenantCode, orgCode). Relies on an UPSERT with a RETURNING clause so the
// increment is a single round trip, row-locked for the duration of the
// caller's transaction (spec §4.2 "exactly-once per commit").
func (r *Repository) NextCounter(ctx context.Context, tenantCode, orgCode string) (uint32, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Insert(counterTable).
		Columns("tenant_code", "org_code", "counter").
		Values(tenantCode, orgCode, 1).
		Suffix("ON CONFLICT (tenant_code, org_code) DO UPDATE SET counter = "+counterTable+".counter + 1 RETURNING counter").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return 0, common.InternalServerError{Err: err}
	}

	var counter uint32
	if err := q.QueryRowContext(ctx, query, args...).Scan(&counter); err != nil {
		return 0, storeerr.Translate(ctx, err, "VillageIDCounter")
	}

	return counter, nil
}

// TenantCode returns tenantID's stable village tenant code.
func (r *Repository) TenantCode(ctx context.Context, tenantID string) (string, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("village_tenant_code").From("tenant").
		Where(sqrl.Eq{"id": tenantID}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return "", common.InternalServerError{Err: err}
	}

	var code string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.EntityNotFoundError{EntityType: "Tenant", Kind: common.NotFoundUnknownTenant}
		}

		return "", storeerr.Translate(ctx, err, "Tenant")
	}

	return code, nil
}

// OrganizationCode returns organizationID's allocated four-hex-digit
// village organization code.
func (r *Repository) OrganizationCode(ctx context.Context, tenantID, organizationID string) (string, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("SUBSTRING(village_id FROM 6 FOR 4)").From("organization").
		Where(sqrl.Eq{"tenant_id": tenantID, "id": organizationID}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return "", common.InternalServerError{Err: err}
	}

	var code string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.EntityNotFoundError{EntityType: "Organization", Kind: common.NotFoundResourceMissing}
		}

		return "", storeerr.Translate(ctx, err, "Organization")
	}

	return code, nil
}

// Insert upserts a lookup row, used both by Allocate's placeholder insert
// and BindInternalID's finalize step.
func (r *Repository) Insert(ctx context.Context, l villageid.Lookup) error {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Insert(lookupTable).
		Columns("village_id", "kind", "internal_id").
		Values(l.VillageID, l.Kind, l.InternalID).
		Suffix("ON CONFLICT (village_id) DO UPDATE SET internal_id = EXCLUDED.internal_id").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return storeerr.Translate(ctx, err, "VillageID")
	}

	return nil
}

// Resolve looks up villageID's lookup row.
func (r *Repository) Resolve(ctx context.Context, villageID string) (*villageid.Lookup, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("village_id", "kind", "internal_id").From(lookupTable).
		Where(sqrl.Eq{"village_id": villageID}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	var l villageid.Lookup
	if err := q.QueryRowContext(ctx, query, args...).Scan(&l.VillageID, &l.Kind, &l.InternalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "VillageID", Kind: common.NotFoundVillageIDUnknown}
		}

		return nil, storeerr.Translate(ctx, err, "VillageID")
	}

	return &l, nil
}

// TenantCodeExists reports whether tenantCode still names a live tenant
// (used to detect tenant deletion/code reassignment at resolve time).
func (r *Repository) TenantCodeExists(ctx context.Context, tenantCode string) (bool, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("COUNT(*)").From("tenant").
		Where(sqrl.Eq{"village_tenant_code": tenantCode, "is_active": true}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return false, common.InternalServerError{Err: err}
	}

	var count int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, storeerr.Translate(ctx, err, "Tenant")
	}

	return count > 0, nil
}
