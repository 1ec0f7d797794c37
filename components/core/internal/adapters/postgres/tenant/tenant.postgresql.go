// Package tenant is the Postgres-backed tenant.Repository.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "tenant"

var columns = []string{"id", "village_tenant_code", "name", "is_active", "revision", "created_at", "updated_at"}

// Repository is the Postgres-backed tenant.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts t and returns the stored row.
func (r *Repository) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(t.ID, t.VillageTenantCode, t.Name, t.IsActive, 1, t.CreatedAt, t.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Tenant")
	}

	t.Revision = 1

	return t, nil
}

// Find retrieves a tenant by id.
func (r *Repository) Find(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.findBy(ctx, sqrl.Eq{"id": id})
}

// FindByVillageCode retrieves a tenant by its village tenant code.
func (r *Repository) FindByVillageCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	return r.findBy(ctx, sqrl.Eq{"village_tenant_code": code})
}

func (r *Repository) findBy(ctx context.Context, where sqrl.Eq) (*tenant.Tenant, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).From(tableName).Where(where).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	t, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Tenant", Kind: common.NotFoundUnknownTenant}
		}

		return nil, storeerr.Translate(ctx, err, "Tenant")
	}

	return t, nil
}

// FindAll paginates every tenant.
func (r *Repository) FindAll(ctx context.Context, page, perPage int) ([]*tenant.Tenant, int64, error) {
	q := r.Tx.Querier(ctx)

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	query, args, err := sqrl.Select(columns...).From(tableName).
		OrderBy("name ASC", "id ASC").Limit(uint64(perPage)).Offset(offset).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Tenant")
	}
	defer rows.Close()

	var out []*tenant.Tenant

	for rows.Next() {
		t, err := scanRows(rows)
		if err != nil {
			return nil, 0, common.InternalServerError{Err: err}
		}

		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Tenant")
	}

	return out, total, nil
}

// UpdateIfRevision applies a CAS update (spec §4.1).
func (r *Repository) UpdateIfRevision(ctx context.Context, id string, revision int64, t *tenant.Tenant) (*tenant.Tenant, error) {
	q := r.Tx.Querier(ctx)

	t.UpdatedAt = time.Now()

	query, args, err := sqrl.Update(tableName).
		Set("name", t.Name).
		Set("is_active", t.IsActive).
		Set("revision", revision+1).
		Set("updated_at", t.UpdatedAt).
		Where(sqrl.Eq{"id": id, "revision": revision}).
		Suffix("RETURNING id, village_tenant_code, name, is_active, revision, created_at, updated_at").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	updated, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			current, findErr := r.Find(ctx, id)
			if findErr != nil {
				return nil, findErr
			}

			return nil, common.StaleRevisionError{EntityType: "Tenant", ExpectedRevision: revision, ActualRevision: current.Revision}
		}

		return nil, storeerr.Translate(ctx, err, "Tenant")
	}

	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*tenant.Tenant, error) { return scanRowLike(row) }

func scanRows(rows *sql.Rows) (*tenant.Tenant, error) { return scanRowLike(rows) }

func scanRowLike(s rowScanner) (*tenant.Tenant, error) {
	var t tenant.Tenant

	if err := s.Scan(&t.ID, &t.VillageTenantCode, &t.Name, &t.IsActive, &t.Revision, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}
