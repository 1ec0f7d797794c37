// Package audit is the Postgres-backed audit.Repository: an append-only
// table, never updated or deleted from except by Purge's retention sweep.
package audit

import (
	"context"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/audit"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "audit_record"

var columns = []string{
	"id", "timestamp", "tenant_id", "principal_id", "action", "resource_type",
	"resource_id", "before_hash", "after_hash", "outcome", "correlation_id",
}

// Repository is the Postgres-backed audit.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Append inserts r. Always called from within the mutation's own
// transaction so a failure here rolls back the mutation it is auditing.
func (r *Repository) Append(ctx context.Context, rec *audit.Record) (*audit.Record, error) {
	q := r.Tx.Querier(ctx)

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(rec.ID, rec.Timestamp, rec.TenantID, rec.PrincipalID, rec.Action, rec.ResourceType,
			rec.ResourceID, rec.BeforeHash, rec.AfterHash, rec.Outcome, rec.CorrelationID).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "AuditRecord")
	}

	return rec, nil
}

// List paginates audit records matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter audit.Filter, page, perPage int) ([]*audit.Record, int64, error) {
	q := r.Tx.Querier(ctx)

	where := sqrl.And{}

	if filter.TenantID != "" {
		where = append(where, sqrl.Eq{"tenant_id": filter.TenantID})
	}

	if filter.PrincipalID != "" {
		where = append(where, sqrl.Eq{"principal_id": filter.PrincipalID})
	}

	if filter.ResourceType != "" {
		where = append(where, sqrl.Eq{"resource_type": filter.ResourceType})
	}

	if filter.ResourceID != "" {
		where = append(where, sqrl.Eq{"resource_id": filter.ResourceID})
	}

	if filter.Action != "" {
		where = append(where, sqrl.Eq{"action": filter.Action})
	}

	if !filter.From.IsZero() {
		where = append(where, sqrl.GtOrEq{"timestamp": filter.From})
	}

	if !filter.To.IsZero() {
		where = append(where, sqrl.LtOrEq{"timestamp": filter.To})
	}

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	sel := sqrl.Select(columns...).From(tableName).OrderBy("timestamp DESC").
		Limit(uint64(perPage)).Offset(offset).PlaceholderFormat(sqrl.Dollar)
	if len(where) > 0 {
		sel = sel.Where(where)
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "AuditRecord")
	}
	defer rows.Close()

	var out []*audit.Record

	for rows.Next() {
		var rec audit.Record
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.TenantID, &rec.PrincipalID, &rec.Action, &rec.ResourceType,
			&rec.ResourceID, &rec.BeforeHash, &rec.AfterHash, &rec.Outcome, &rec.CorrelationID,
		); err != nil {
			return nil, 0, common.InternalServerError{Err: err}
		}

		out = append(out, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	countSel := sqrl.Select("COUNT(*)").From(tableName).PlaceholderFormat(sqrl.Dollar)
	if len(where) > 0 {
		countSel = countSel.Where(where)
	}

	countQuery, countArgs, err := countSel.ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	var total int64
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "AuditRecord")
	}

	return out, total, nil
}

// Purge deletes every record strictly older than olderThan, returning the
// number of rows removed (spec's ActionAuditPurge operation).
func (r *Repository) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Delete(tableName).
		Where(sqrl.Lt{"timestamp": olderThan}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return 0, common.InternalServerError{Err: err}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeerr.Translate(ctx, err, "AuditRecord")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, common.InternalServerError{Err: err}
	}

	return rows, nil
}
