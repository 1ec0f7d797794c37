// Package oncall is the Postgres-backed oncall.Repository.
package oncall

import (
	"context"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const (
	rotationTable = "oncall_rotation"
	shiftTable    = "oncall_shift"
	overrideTable = "oncall_override"
)

// Repository is the Postgres-backed oncall.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// CreateRotation inserts r and returns the stored row.
func (r *Repository) CreateRotation(ctx context.Context, rot *oncall.Rotation) (*oncall.Rotation, error) {
	q := r.Tx.Querier(ctx)

	if rot.ID == "" {
		rot.ID = uuid.NewString()
	}

	if rot.CreatedAt.IsZero() {
		rot.CreatedAt = time.Now()
	}

	query, args, err := sqrl.Insert(rotationTable).
		Columns("id", "tenant_id", "scope_type", "scope_id", "priority", "cron_expr", "shift_length_ms", "created_at").
		Values(rot.ID, rot.TenantID, rot.ScopeType, rot.ScopeID, rot.Priority, rot.CronExpr, rot.ShiftLength.Milliseconds(), rot.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Rotation")
	}

	return rot, nil
}

// FindRotationsByScope returns every rotation configured for (scopeType, scopeID).
func (r *Repository) FindRotationsByScope(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string) ([]*oncall.Rotation, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("id", "tenant_id", "scope_type", "scope_id", "priority", "cron_expr", "shift_length_ms", "created_at").
		From(rotationTable).
		Where(sqrl.Eq{"tenant_id": tenantID, "scope_type": scopeType, "scope_id": scopeID}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Rotation")
	}
	defer rows.Close()

	var out []*oncall.Rotation

	for rows.Next() {
		var rot oncall.Rotation

		var shiftMS int64

		if err := rows.Scan(&rot.ID, &rot.TenantID, &rot.ScopeType, &rot.ScopeID, &rot.Priority, &rot.CronExpr, &shiftMS, &rot.CreatedAt); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		rot.ShiftLength = time.Duration(shiftMS) * time.Millisecond
		out = append(out, &rot)
	}

	return out, rows.Err()
}

// AddShift inserts an explicit shift.
func (r *Repository) AddShift(ctx context.Context, s *oncall.Shift) (*oncall.Shift, error) {
	q := r.Tx.Querier(ctx)

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query, args, err := sqrl.Insert(shiftTable).
		Columns("id", "rotation_id", "identity_id", "start_at", "end_at").
		Values(s.ID, s.RotationID, s.IdentityID, s.Start, s.End).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Shift")
	}

	return s, nil
}

// FindShiftsByRotation returns rotationID's explicit shifts overlapping
// [windowStart, windowEnd).
func (r *Repository) FindShiftsByRotation(ctx context.Context, rotationID string, windowStart, windowEnd time.Time) ([]*oncall.Shift, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("id", "rotation_id", "identity_id", "start_at", "end_at").
		From(shiftTable).
		Where(sqrl.Eq{"rotation_id": rotationID}).
		Where(sqrl.Lt{"start_at": windowEnd}).
		Where(sqrl.Gt{"end_at": windowStart}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Shift")
	}
	defer rows.Close()

	var out []*oncall.Shift

	for rows.Next() {
		var s oncall.Shift
		if err := rows.Scan(&s.ID, &s.RotationID, &s.IdentityID, &s.Start, &s.End); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &s)
	}

	return out, rows.Err()
}

// CreateOverride inserts an override.
func (r *Repository) CreateOverride(ctx context.Context, o *oncall.Override) (*oncall.Override, error) {
	q := r.Tx.Querier(ctx)

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	query, args, err := sqrl.Insert(overrideTable).
		Columns("id", "tenant_id", "scope_type", "scope_id", "identity_id", "start_at", "end_at", "reason", "created_at").
		Values(o.ID, o.TenantID, o.ScopeType, o.ScopeID, o.IdentityID, o.Start, o.End, o.Reason, o.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Override")
	}

	return o, nil
}

// FindOverridesByScope returns overrides for (scopeType, scopeID) overlapping [windowStart, windowEnd).
func (r *Repository) FindOverridesByScope(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string, windowStart, windowEnd time.Time) ([]*oncall.Override, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("id", "tenant_id", "scope_type", "scope_id", "identity_id", "start_at", "end_at", "reason", "created_at").
		From(overrideTable).
		Where(sqrl.Eq{"tenant_id": tenantID, "scope_type": scopeType, "scope_id": scopeID}).
		Where(sqrl.Lt{"start_at": windowEnd}).
		Where(sqrl.Gt{"end_at": windowStart}).
		OrderBy("created_at ASC").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Override")
	}
	defer rows.Close()

	var out []*oncall.Override

	for rows.Next() {
		var o oncall.Override
		if err := rows.Scan(&o.ID, &o.TenantID, &o.ScopeType, &o.ScopeID, &o.IdentityID, &o.Start, &o.End, &o.Reason, &o.CreatedAt); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &o)
	}

	return out, rows.Err()
}
