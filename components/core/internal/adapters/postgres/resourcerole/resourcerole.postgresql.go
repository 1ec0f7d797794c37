// Package resourcerole is the Postgres-backed resourcerole.Repository.
package resourcerole

import (
	"context"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "resource_role"

var columns = []string{"id", "identity_id", "scope_type", "scope_id", "role"}

// Repository is the Postgres-backed resourcerole.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts a grant and returns the stored row.
func (r *Repository) Create(ctx context.Context, grant *resourcerole.ResourceRole) (*resourcerole.ResourceRole, error) {
	q := r.Tx.Querier(ctx)

	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(grant.ID, grant.IdentityID, grant.ScopeType, grant.ScopeID, grant.Role).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "ResourceRole")
	}

	return grant, nil
}

// Delete revokes a grant by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Delete(tableName).Where(sqrl.Eq{"id": id}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeerr.Translate(ctx, err, "ResourceRole")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return common.InternalServerError{Err: err}
	}

	if rows == 0 {
		return common.EntityNotFoundError{EntityType: "ResourceRole", Kind: common.NotFoundResourceMissing}
	}

	return nil
}

// FindByIdentity returns every grant held by identityID, consulted by
// authz.AuthZ.resolve.
func (r *Repository) FindByIdentity(ctx context.Context, identityID string) ([]*resourcerole.ResourceRole, error) {
	return r.findAll(ctx, sqrl.Eq{"identity_id": identityID})
}

// FindByScope returns every grant on (scopeType, scopeID).
func (r *Repository) FindByScope(ctx context.Context, scopeType resourcerole.ScopeType, scopeID string) ([]*resourcerole.ResourceRole, error) {
	return r.findAll(ctx, sqrl.Eq{"scope_type": scopeType, "scope_id": scopeID})
}

func (r *Repository) findAll(ctx context.Context, where sqrl.Eq) ([]*resourcerole.ResourceRole, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).From(tableName).Where(where).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Translate(ctx, err, "ResourceRole")
	}
	defer rows.Close()

	var out []*resourcerole.ResourceRole

	for rows.Next() {
		var grant resourcerole.ResourceRole

		if err := rows.Scan(&grant.ID, &grant.IdentityID, &grant.ScopeType, &grant.ScopeID, &grant.Role); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		out = append(out, &grant)
	}

	return out, rows.Err()
}
