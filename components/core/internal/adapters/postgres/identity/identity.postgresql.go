// Package identity is the Postgres-backed identity.Repository.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/store"
)

const tableName = "identity"

var columns = []string{
	"id", "village_id", "tenant_id", "username", "email", "identity_type",
	"auth_provider", "portal_role", "is_active", "mfa_enabled", "credential_fingerprint",
	"revision", "created_at", "updated_at",
}

// Repository is the Postgres-backed identity.Repository.
type Repository struct {
	Tx *store.Manager
}

// New builds a Repository backed by tx.
func New(tx *store.Manager) *Repository {
	return &Repository{Tx: tx}
}

// Create inserts i and returns the stored row.
func (r *Repository) Create(ctx context.Context, i *identity.Identity) (*identity.Identity, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Insert(tableName).
		Columns(columns...).
		Values(i.ID, i.VillageID, i.TenantID, i.Username, i.Email, i.IdentityType,
			i.AuthProvider, i.PortalRole, i.IsActive, i.MFAEnabled, i.CredentialFingerprint,
			1, i.CreatedAt, i.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, storeerr.Translate(ctx, err, "Identity")
	}

	i.Revision = 1

	return i, nil
}

// Find retrieves an identity by id, scoped to tenantID.
func (r *Repository) Find(ctx context.Context, tenantID, id string) (*identity.Identity, error) {
	return r.findBy(ctx, sqrl.Eq{"tenant_id": tenantID, "id": id})
}

// FindByUsername retrieves an identity by its username, scoped to tenantID.
func (r *Repository) FindByUsername(ctx context.Context, tenantID, username string) (*identity.Identity, error) {
	return r.findBy(ctx, sqrl.Eq{"tenant_id": tenantID, "username": username})
}

// FindByCredentialFingerprint looks up an identity across tenants by its
// stored credential fingerprint, used by API-key authentication.
func (r *Repository) FindByCredentialFingerprint(ctx context.Context, fingerprint string) (*identity.Identity, error) {
	return r.findBy(ctx, sqrl.Eq{"credential_fingerprint": fingerprint})
}

func (r *Repository) findBy(ctx context.Context, where sqrl.Eq) (*identity.Identity, error) {
	q := r.Tx.Querier(ctx)

	query, args, err := sqrl.Select(columns...).From(tableName).Where(where).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	i, err := scanOne(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{EntityType: "Identity", Kind: common.NotFoundResourceMissing}
		}

		return nil, storeerr.Translate(ctx, err, "Identity")
	}

	return i, nil
}

// FindAll paginates every identity for tenantID.
func (r *Repository) FindAll(ctx context.Context, tenantID string, page, perPage int) ([]*identity.Identity, int64, error) {
	q := r.Tx.Querier(ctx)

	offset := uint64(0)
	if page > 1 {
		offset = uint64((page - 1) * perPage)
	}

	query, args, err := sqrl.Select(columns...).From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID}).
		OrderBy("username ASC").Limit(uint64(perPage)).Offset(offset).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Identity")
	}
	defer rows.Close()

	var out []*identity.Identity

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

	var total int64

	countQuery, countArgs, err := sqrl.Select("COUNT(*)").From(tableName).
		Where(sqrl.Eq{"tenant_id": tenantID}).PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, 0, common.InternalServerError{Err: err}
	}

	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, storeerr.Translate(ctx, err, "Identity")
	}

	return out, total, nil
}

// UpdateIfRevision applies a CAS update (spec §4.1).
func (r *Repository) UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, i *identity.Identity) (*identity.Identity, error) {
	q := r.Tx.Querier(ctx)

	i.UpdatedAt = time.Now()

	query, args, err := sqrl.Update(tableName).
		Set("portal_role", i.PortalRole).
		Set("is_active", i.IsActive).
		Set("mfa_enabled", i.MFAEnabled).
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

			return nil, common.StaleRevisionError{EntityType: "Identity", ExpectedRevision: revision, ActualRevision: current.Revision}
		}

		return nil, storeerr.Translate(ctx, err, "Identity")
	}

	return updated, nil
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

func scanOne(row *sql.Row) (*identity.Identity, error) { return scanRowLike(row) }

func scanRows(rows *sql.Rows) (*identity.Identity, error) { return scanRowLike(rows) }

func scanRowLike(s rowScanner) (*identity.Identity, error) {
	var i identity.Identity

	if err := s.Scan(
		&i.ID, &i.VillageID, &i.TenantID, &i.Username, &i.Email, &i.IdentityType,
		&i.AuthProvider, &i.PortalRole, &i.IsActive, &i.MFAEnabled, &i.CredentialFingerprint,
		&i.Revision, &i.CreatedAt, &i.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &i, nil
}
