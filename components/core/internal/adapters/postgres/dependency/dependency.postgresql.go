// Package dependency is the Postgres-backed dependency.Repository.
package dependency

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "dependency"

var columns = []string{
	"id", "tenant_id", "source_entity_id", "target_entity_id", "dependency_type",
	"metadata", "revision", "created_at",
}

// Repository is the Postgres-backed dependency.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts d and returns the stored row. Callers must have already
// run graph.Snapshot.AddEdgeCheck for hard-subgraph edges before calling
// this, since the cycle check itself is not enforceable at the SQL layer.
func (r *Repository) Create(ctx context.Context, d *dependency.Dependency) (*dependency.Dependency, error) {
	q := r.Tx.Querier(ctx)

	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, common.ValidationError{EntityType: "Dependency", Message: "metadata must be JSON-serializable"}
	}

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(d.ID, d.TenantID, d.SourceEntityID, d.TargetEntityID, d.DependencyType, meta, 1, d.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Dependency")
	}

	d.Revision = 1

	return d, nil
}

// Find retrieves a dependency by id, scoped to tenantID.
func (r *Repository) Find(ctx context.Context, tenantID, id string) (*dependency.Dependency, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	d, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Dependency", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "Dependency")
	}

	return d, nil
}

// FindByTenant loads every dependency edge for tenantID, used by
// graph.Builder to assemble a Snapshot.
func (r *Repository) FindByTenant(ctx context.Context, tenantID string) ([]*dependency.Dependency, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Dependency")
	}
	defer rows.Close()

	var out []*dependency.Dependency

	for rows.Next() {
		d, err := scanRows(rows)
		if err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

// FindBySourceTarget looks up the edge between sourceID and targetID of
// depType, used to reject duplicate edges before insert.
func (r *Repository) FindBySourceTarget(ctx context.Context, tenantID, sourceID, targetID string, depType dependency.Type) (*dependency.Dependency, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).
		From(tableName).
		Where(sqrl.Eq{
			"tenant_id":        tenantID,
			"source_entity_id": sourceID,
			"target_entity_id": targetID,
			"dependency_type":  depType,
		}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	d, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, storeerr.Translate(ctx, err, "Dependency")
	}

	return d, nil
}

// Delete removes a dependency edge.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Delete(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeerr.Translate(ctx, err, "Dependency")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if rows == 0 {
		return common.EntityNotFoundError{EntityType: "Dependency", Kind: common.NotFoundResourceMissing}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*dependency.Dependency, error) { return scanRowLike(row) }

func scanRows(rows *sql.Rows) (*dependency.Dependency, error) { return scanRowLike(rows) }

func scanRowLike(s rowScanner) (*dependency.Dependency, error) {
	var d dependency.Dependency

	var meta []byte

	if err := s.Scan(&d.ID, &d.TenantID, &d.SourceEntityID, &d.TargetEntityID, &d.DependencyType, &meta, &d.Revision, &d.CreatedAt); err != nil {
		return nil, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &d.Metadata); err != nil {
			return nil, err
		}
	}

	return &d, nil
}
