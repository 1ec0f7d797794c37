// Package entity is the Postgres-backed entity.Repository.
package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "entity"

var columns = []string{
	"id", "village_id", "tenant_id", "organization_id", "entity_type", "name",
	"attributes", "tags", "is_active", "revision", "created_at", "updated_at", "deleted_at",
}

// Repository is the Postgres-backed entity.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts e and returns the stored row.
func (r *Repository) Create(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	q := r.Tx.Querier(ctx)

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, common.ValidationError{EntityType: "Entity", Message: "attributes must be JSON-serializable"}
	}

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(e.ID, e.VillageID, e.TenantID, e.OrganizationID, e.EntityType, e.Name,
			attrs, pq.Array(e.Tags), e.IsActive, 1, e.CreatedAt, e.UpdatedAt, e.DeletedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Entity")
	}

	e.Revision = 1

	return e, nil
}

// Find retrieves a live entity by id, scoped to tenantID.
func (r *Repository) Find(ctx context.Context, tenantID, id string) (*entity.Entity, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id, "deleted_at": nil}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	e, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Entity", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "Entity")
	}

	return e, nil
}

// FindAll paginates entities for tenantID matching filter's AND-combined predicates.
func (r *Repository) FindAll(ctx context.Context, tenantID string, filter entity.Filter, page, perPage int) ([]*entity.Entity, int64, error) {
	q := r.Tx.Querier(ctx)

	where := sqrl.Eq{"tenant_id": tenantID, "deleted_at": nil}

	if filter.OrganizationID != "" {
		where["organization_id"] = filter.OrganizationID
	}

	if filter.EntityType != "" {
		where["entity_type"] = filter.EntityType
	}

	sel := sqrl.Select(columns...).From(tableName).Where(where)
	if filter.Tag != "" {
		sel = sel.Where("? = ANY(tags)", filter.Tag)
	}

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	query, args, err := sel.OrderBy("name ASC", "id ASC").Limit(uint64(perPage)).Offset(offset).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Entity")
	}
	defer rows.Close()

	var out []*entity.Entity

	for rows.Next() {
		e, err := scanRows(rows)
		if err != nil {
			return nil, 0, common.InternalServerError{Err: err}
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	countSel := sqrl.Select("COUNT(*)").From(tableName).Where(where)
	if filter.Tag != "" {
		countSel = countSel.Where("? = ANY(tags)", filter.Tag)
	}

	countQuery, countArgs, err := countSel.PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	var total int64
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Entity")
	}

	return out, total, nil
}

// FindByOrganizations returns every live entity belonging to one of orgIDs,
// used by graph.Builder-adjacent lookups that need an org subtree's entities.
func (r *Repository) FindByOrganizations(ctx context.Context, tenantID string, orgIDs []string) ([]*entity.Entity, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		Where(sqrl.Eq{"organization_id": orgIDs}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Entity")
	}
	defer rows.Close()

	var out []*entity.Entity

	for rows.Next() {
		e, err := scanRows(rows)
		if err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

// UpdateIfRevision applies a CAS update (spec §4.1).
func (r *Repository) UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, e *entity.Entity) (*entity.Entity, error) {
	q := r.Tx.Querier(ctx)

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, common.ValidationError{EntityType: "Entity", Message: "attributes must be JSON-serializable"}
	}

	e.UpdatedAt = time.Now()

	query, args, err := sqrl.Update(tableName).
		Set("name", e.Name).
		Set("attributes", attrs).
		Set("tags", pq.Array(e.Tags)).
		Set("is_active", e.IsActive).
		Set("revision", revision+1).
		Set("updated_at", e.UpdatedAt).
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

			return nil, common.StaleRevisionError{EntityType: "Entity", ExpectedRevision: revision, ActualRevision: current.Revision}
		}

		return nil, storeerr.Translate(ctx, err, "Entity")
	}

	return updated, nil
}

// Delete soft-deletes id.
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
		return storeerr.Translate(ctx, err, "Entity")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if rows == 0 {
		return common.EntityNotFoundError{EntityType: "Entity", Kind: common.NotFoundResourceMissing}
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

func scanOne(row *sql.Row) (*entity.Entity, error) { return scanRowLike(row) }

func scanRows(rows *sql.Rows) (*entity.Entity, error) { return scanRowLike(rows) }

func scanRowLike(s rowScanner) (*entity.Entity, error) {
	var e entity.Entity

	var attrs []byte

	if err := s.Scan(
		&e.ID, &e.VillageID, &e.TenantID, &e.OrganizationID, &e.EntityType, &e.Name,
		&attrs, pq.Array(&e.Tags), &e.IsActive, &e.Revision, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	); err != nil {
		return nil, err
	}

	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, err
		}
	}

	return &e, nil
}
