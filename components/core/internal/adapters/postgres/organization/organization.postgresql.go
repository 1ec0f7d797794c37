// Package organization is the Postgres-backed organization.Repository,
// grounded on the teacher's organization.postgresql.go squirrel/lib-pq
// conventions but reading/writing through store.Querier so every call
// transparently joins the caller's active Pipeline transaction.
package organization

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "organization"

var columns = []string{
	"id", "village_id", "tenant_id", "parent_id", "name", "type",
	"owner_identity_id", "owner_group_id", "ldap_dn", "saml_group",
	"revision", "created_at", "updated_at", "deleted_at",
}

// Repository is the Postgres-backed organization.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts org and returns the stored row.
func (r *Repository) Create(ctx context.Context, org *organization.Organization) (*organization.Organization, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(org.ID, org.VillageID, org.TenantID, org.ParentID, org.Name, org.Type,
			org.OwnerIdentityID, org.OwnerGroupID, org.LDAPDn, org.SAMLGroup,
			1, org.CreatedAt, org.UpdatedAt, org.DeletedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Organization")
	}

	org.Revision = 1

	return org, nil
}

// Find retrieves a live (not soft-deleted) organization by id, scoped to tenantID.
func (r *Repository) Find(ctx context.Context, tenantID, id string) (*organization.Organization, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id, "deleted_at": nil}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	org, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{
				EntityType: reflect.TypeOf(organization.Organization{}).Name(),
				Kind:       common.NotFoundResourceMissing,
			}
		}

		return nil, storeerr.Translate(ctx, err, "Organization")
	}

	return org, nil
}

// FindByParent returns the live children of parentID (nil for tenant roots),
// unordered; callers sort (spec §4.4 stable tie-break is applied by graph.Builder).
func (r *Repository) FindByParent(ctx context.Context, tenantID string, parentID *string) ([]*organization.Organization, error) {
	q := r.Tx.Querier(ctx)

	where := sqrl.Eq{"tenant_id": tenantID, "deleted_at": nil}
	if parentID == nil {
		where["parent_id"] = nil
	} else {
		where["parent_id"] = *parentID
	}

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(where).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Organization")
	}
	defer rows.Close()

	var out []*organization.Organization

	for rows.Next() {
		org, err := scanRows(rows)
		if err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, org)
	}

	return out, rows.Err()
}

// FindAll paginates every live organization for tenantID.
func (r *Repository) FindAll(ctx context.Context, tenantID string, page, perPage int) ([]*organization.Organization, int64, error) {
	q := r.Tx.Querier(ctx)

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(perPage)).
		Offset(offset).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Organization")
	}
	defer rows.Close()

	var out []*organization.Organization

	for rows.Next() {
		org, err := scanRows(rows)
		if err != nil {
			return nil, 0, common.InternalServerError{Err: err}
		}

		out = append(out, org)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	countQuery, countArgs, err := sqrl.Select("COUNT(*)").
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	var total int64
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Organization")
	}

	return out, total, nil
}

// HasChildren reports whether id has any live child organization.
func (r *Repository) HasChildren(ctx context.Context, tenantID, id string) (bool, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("COUNT(*)").
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "parent_id": id, "deleted_at": nil}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return false, common.InternalServerError{Err: err}
	}

	var count int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, storeerr.Translate(ctx, err, "Organization")
	}

	return count > 0, nil
}

// UpdateIfRevision applies a CAS update: the row is only written if its
// current revision matches revision, else a StaleRevisionError is returned
// (spec §4.1 optimistic concurrency).
func (r *Repository) UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, org *organization.Organization) (*organization.Organization, error) {
	q := r.Tx.Querier(ctx)

	org.UpdatedAt = time.Now()

	query, args, err := sqrl.Update(tableName).
		Set("parent_id", org.ParentID).
		Set("name", org.Name).
		Set("owner_group_id", org.OwnerGroupID).
		Set("revision", revision+1).
		Set("updated_at", org.UpdatedAt).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id, "revision": revision, "deleted_at": nil}).
		Suffix("RETURNING " + columnList()).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	updated, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			current, findErr := r.Find(ctx, tenantID, id)
			if findErr != nil {
				return nil, findErr
			}

			return nil, common.StaleRevisionError{
				EntityType:       "Organization",
				ExpectedRevision: revision,
				ActualRevision:   current.Revision,
			}
		}

		return nil, storeerr.Translate(ctx, err, "Organization")
	}

	return updated, nil
}

// Delete soft-deletes id. Callers must have already verified HasChildren is
// false (spec §6 dependent_exists conflict) before calling this.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Update(tableName).
		Set("deleted_at", time.Now()).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id, "deleted_at": nil}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeerr.Translate(ctx, err, "Organization")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if rows == 0 {
		return common.EntityNotFoundError{EntityType: "Organization", Kind: common.NotFoundResourceMissing}
	}

	return nil
}

func columnList() string {
	out := ""

	for i, c := range columns {
		if i > 0 {
			out += ", "
		}

		out += c
	}

	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*organization.Organization, error) {
	return scanRowLike(row)
}

func scanRows(rows *sql.Rows) (*organization.Organization, error) {
	return scanRowLike(rows)
}

func scanRowLike(s rowScanner) (*organization.Organization, error) {
	var org organization.Organization

	if err := s.Scan(
		&org.ID, &org.VillageID, &org.TenantID, &org.ParentID, &org.Name, &org.Type,
		&org.OwnerIdentityID, &org.OwnerGroupID, &org.LDAPDn, &org.SAMLGroup,
		&org.Revision, &org.CreatedAt, &org.UpdatedAt, &org.DeletedAt,
	); err != nil {
		return nil, err
	}

	return &org, nil
}
