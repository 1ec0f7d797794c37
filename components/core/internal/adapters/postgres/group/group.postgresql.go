// Package group is the Postgres-backed group.Repository.
package group

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const (
	groupTable   = "group"
	ownerTable   = "group_owner"
	requestTable = "access_request"
	decisionTable = "access_decision"
	memberTable  = "group_member"
)

var groupColumns = []string{
	"id", "tenant_id", "name", "owner_identity_id", "approval_mode",
	"approval_threshold", "provider", "sync_enabled", "revision", "created_at",
}

var requestColumns = []string{
	"id", "tenant_id", "group_id", "requester_id", "reason", "state",
	"expires_at", "revision", "created_at", "updated_at",
}

// Repository is the Postgres-backed group.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// CreateGroup inserts g, seeding group_owner with its primary owner.
func (r *Repository) CreateGroup(ctx context.Context, g *group.Group) (*group.Group, error) {
	q := r.Tx.Querier(ctx)

	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	query, args, err := sqrl.Insert(groupTable).
		Columns(groupColumns...).
		Values(g.ID, g.TenantID, g.Name, g.OwnerIdentityID, g.ApprovalMode, g.ApprovalThreshold, g.Provider, g.SyncEnabled, 1, g.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Group")
	}

	g.Revision = 1

	ownerQuery, ownerArgs, err := sqrl.Insert(ownerTable).
		Columns("group_id", "identity_id").
		Values(g.ID, g.OwnerIdentityID).
		Suffix("ON CONFLICT DO NOTHING").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, ownerQuery, ownerArgs...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Group")
	}

	return g, nil
}

// FindGroup retrieves a group by id, scoped to tenantID.
func (r *Repository) FindGroup(ctx context.Context, tenantID, id string) (*group.Group, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(groupColumns...).From(groupTable).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	var g group.Group
	if err := q.QueryRowContext(ctx, query, args...).Scan(
		&g.ID, &g.TenantID, &g.Name, &g.OwnerIdentityID, &g.ApprovalMode,
		&g.ApprovalThreshold, &g.Provider, &g.SyncEnabled, &g.Revision, &g.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Group", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "Group")
	}

	return &g, nil
}

// Owners returns every identity with owner standing on groupID (the
// primary owner plus any co-owners recorded in group_owner).
func (r *Repository) Owners(ctx context.Context, groupID string) ([]string, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("identity_id").From(ownerTable).
		Where(sqrl.Eq{"group_id": groupID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Group")
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, id)
	}

	return out, rows.Err()
}

// CreateAccessRequest inserts req in Pending state.
func (r *Repository) CreateAccessRequest(ctx context.Context, req *group.AccessRequest) (*group.AccessRequest, error) {
	q := r.Tx.Querier(ctx)

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	now := time.Now()
	req.CreatedAt, req.UpdatedAt = now, now

	query, args, err := sqrl.Insert(requestTable).
		Columns(requestColumns...).
		Values(req.ID, req.TenantID, req.GroupID, req.RequesterID, req.Reason, req.State,
			req.ExpiresAt, 1, req.CreatedAt, req.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "AccessRequest")
	}

	req.Revision = 1

	return req, nil
}

// FindAccessRequest retrieves a request by id, scoped to tenantID.
func (r *Repository) FindAccessRequest(ctx context.Context, tenantID, id string) (*group.AccessRequest, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(requestColumns...).From(requestTable).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	req, err := scanRequest(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "AccessRequest", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "AccessRequest")
	}

	return req, nil
}

// UpdateRequestState applies a CAS transition to state.
func (r *Repository) UpdateRequestState(ctx context.Context, id string, revision int64, state group.RequestState) (*group.AccessRequest, error) {
	q := r.Tx.Querier(ctx)

	now := time.Now()

	query, args, err := sqrl.Update(requestTable).
		Set("state", state).
		Set("revision", revision+1).
		Set("updated_at", now).
		Where(sqrl.Eq{"id": id, "revision": revision}).
		Suffix("RETURNING " + requestColumnList()).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	updated, err := scanRequest(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			current, findErr := r.findRequestByID(ctx, id)
			if findErr != nil {
				return nil, findErr
			}

			return nil, common.StaleRevisionError{EntityType: "AccessRequest", ExpectedRevision: revision, ActualRevision: current.Revision}
		}

		return nil, storeerr.Translate(ctx, err, "AccessRequest")
	}

	return updated, nil
}

func (r *Repository) findRequestByID(ctx context.Context, id string) (*group.AccessRequest, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(requestColumns...).From(requestTable).
		Where(sqrl.Eq{"id": id}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	return scanRequest(q.QueryRowContext(ctx, query, args...))
}

// RecordDecision inserts d unconditionally (spec §4.6: a decision is
// always recorded even when it arrives after the request has resolved).
func (r *Repository) RecordDecision(ctx context.Context, d *group.Decision) (*group.Decision, error) {
	q := r.Tx.Querier(ctx)

	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now()
	}

	query, args, err := sqrl.Insert(decisionTable).
		Columns("id", "request_id", "owner_id", "approve", "decided_at").
		Values(d.ID, d.RequestID, d.OwnerID, d.Approve, d.DecidedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Decision")
	}

	return d, nil
}

// Decisions returns every decision recorded against requestID.
func (r *Repository) Decisions(ctx context.Context, requestID string) ([]*group.Decision, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("id", "request_id", "owner_id", "approve", "decided_at").
		From(decisionTable).Where(sqrl.Eq{"request_id": requestID}).
		OrderBy("decided_at ASC").
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Decision")
	}
	defer rows.Close()

	var out []*group.Decision

	for rows.Next() {
		var d group.Decision
		if err := rows.Scan(&d.ID, &d.RequestID, &d.OwnerID, &d.Approve, &d.DecidedAt); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &d)
	}

	return out, rows.Err()
}

// AddMember inserts a membership row.
func (r *Repository) AddMember(ctx context.Context, m *group.Member) (*group.Member, error) {
	q := r.Tx.Querier(ctx)

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query, args, err := sqrl.Insert(memberTable).
		Columns("group_id", "identity_id", "expires_at", "created_at").
		Values(m.GroupID, m.IdentityID, m.ExpiresAt, m.CreatedAt).
		Suffix("ON CONFLICT (group_id, identity_id) DO UPDATE SET expires_at = EXCLUDED.expires_at").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Member")
	}

	return m, nil
}

// RemoveMember deletes a membership row, idempotently.
func (r *Repository) RemoveMember(ctx context.Context, groupID, identityID string) error {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Delete(memberTable).
		Where(sqrl.Eq{"group_id": groupID, "identity_id": identityID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return storeerr.Translate(ctx, err, "Member")
	}

	return nil
}

// Members returns every current member of groupID.
func (r *Repository) Members(ctx context.Context, groupID string) ([]*group.Member, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("group_id", "identity_id", "expires_at", "created_at").
		From(memberTable).Where(sqrl.Eq{"group_id": groupID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Member")
	}
	defer rows.Close()

	var out []*group.Member

	for rows.Next() {
		var m group.Member
		if err := rows.Scan(&m.GroupID, &m.IdentityID, &m.ExpiresAt, &m.CreatedAt); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &m)
	}

	return out, rows.Err()
}

// IsMember reports whether identityID currently belongs to groupID.
func (r *Repository) IsMember(ctx context.Context, groupID, identityID string) (bool, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("COUNT(*)").From(memberTable).
		Where(sqrl.Eq{"group_id": groupID, "identity_id": identityID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return false, common.InternalServerError{Err: err}
	}

	var count int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, storeerr.Translate(ctx, err, "Member")
	}

	return count > 0, nil
}

func requestColumnList() string {
	out := ""

	for i, c := range requestColumns {
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

func scanRequest(s rowScanner) (*group.AccessRequest, error) {
	var req group.AccessRequest

	if err := s.Scan(
		&req.ID, &req.TenantID, &req.GroupID, &req.RequesterID, &req.Reason, &req.State,
		&req.ExpiresAt, &req.Revision, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &req, nil
}
