// Package issue is the Postgres-backed issue.Repository.
package issue

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const (
	tableName   = "issue"
	commentTable = "issue_comment"
)

var columns = []string{
	"id", "tenant_id", "organization_id", "title", "status", "priority", "severity",
	"assignee_id", "is_incident", "labels", "linked_entities", "revision", "created_at", "updated_at",
}

// Repository is the Postgres-backed issue.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts i and returns the stored row.
func (r *Repository) Create(ctx context.Context, i *issue.Issue) (*issue.Issue, error) {
	q := r.Tx.Querier(ctx)

	if i.ID == "" {
		i.ID = uuid.NewString()
	}

	now := time.Now()
	i.CreatedAt, i.UpdatedAt = now, now

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(i.ID, i.TenantID, i.OrganizationID, i.Title, i.Status, i.Priority, i.Severity,
			i.AssigneeID, i.IsIncident, pq.Array(i.Labels), pq.Array(i.LinkedEntities), 1, i.CreatedAt, i.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Issue")
	}

	i.Revision = 1

	return i, nil
}

// Find retrieves an issue by id, scoped to tenantID.
func (r *Repository) Find(ctx context.Context, tenantID, id string) (*issue.Issue, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	i, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Issue", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "Issue")
	}

	return i, nil
}

// FindAll paginates issues for tenantID, optionally filtered by status and
// assigneeID (zero-value strings disable the respective filter).
func (r *Repository) FindAll(ctx context.Context, tenantID string, status issue.Status, assigneeID string, page, perPage int) ([]*issue.Issue, int64, error) {
	q := r.Tx.Querier(ctx)

	where := sqrl.And{sqrl.Eq{"tenant_id": tenantID}}

	if status != "" {
		where = append(where, sqrl.Eq{"status": status})
	}

	if assigneeID != "" {
		where = append(where, sqrl.Eq{"assignee_id": assigneeID})
	}

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	query, args, err := sqrl.Select(columns...).From(tableName).
		Where(where).OrderBy("created_at DESC").
		Limit(uint64(perPage)).Offset(offset).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Issue")
	}
	defer rows.Close()

	var out []*issue.Issue

	for rows.Next() {
		i, err := scanRows(rows)
		if err != nil {
			return nil, 0, common.InternalServerError{Err: err}
		}

		out = append(out, i)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	countQuery, countArgs, err := sqrl.Select("COUNT(*)").From(tableName).Where(where).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	var total int64
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Issue")
	}

	return out, total, nil
}

// UpdateIfRevision applies a CAS update (spec §4.1).
func (r *Repository) UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, i *issue.Issue) (*issue.Issue, error) {
	q := r.Tx.Querier(ctx)

	i.UpdatedAt = time.Now()

	query, args, err := sqrl.Update(tableName).
		Set("status", i.Status).
		Set("priority", i.Priority).
		Set("severity", i.Severity).
		Set("assignee_id", i.AssigneeID).
		Set("labels", pq.Array(i.Labels)).
		Set("revision", revision+1).
		Set("updated_at", i.UpdatedAt).
		Where(sqrl.Eq{"tenant_id": tenantID, "id": id, "revision": revision}).
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

			return nil, common.StaleRevisionError{EntityType: "Issue", ExpectedRevision: revision, ActualRevision: current.Revision}
		}

		return nil, storeerr.Translate(ctx, err, "Issue")
	}

	return updated, nil
}

// AddComment appends an immutable comment to an issue.
func (r *Repository) AddComment(ctx context.Context, c *issue.Comment) (*issue.Comment, error) {
	q := r.Tx.Querier(ctx)

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	query, args, err := sqrl.Insert(commentTable).
		Columns("id", "issue_id", "author_id", "body", "created_at").
		Values(c.ID, c.IssueID, c.AuthorID, c.Body, c.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Comment")
	}

	return c, nil
}

// ListComments returns every comment on issueID, oldest first.
func (r *Repository) ListComments(ctx context.Context, issueID string) ([]*issue.Comment, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select("id", "issue_id", "author_id", "body", "created_at").
		From(commentTable).Where(sqrl.Eq{"issue_id": issueID}).OrderBy("created_at ASC").
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "Comment")
	}
	defer rows.Close()

	var out []*issue.Comment

	for rows.Next() {
		var c issue.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &c)
	}

	return out, rows.Err()
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

func scanOne(row *sql.Row) (*issue.Issue, error) { return scanRowLike(row) }

func scanRows(rows *sql.Rows) (*issue.Issue, error) { return scanRowLike(rows) }

func scanRowLike(s rowScanner) (*issue.Issue, error) {
	var i issue.Issue

	if err := s.Scan(
		&i.ID, &i.TenantID, &i.OrganizationID, &i.Title, &i.Status, &i.Priority, &i.Severity,
		&i.AssigneeID, &i.IsIncident, pq.Array(&i.Labels), pq.Array(&i.LinkedEntities), &i.Revision, &i.CreatedAt, &i.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &i, nil
}
