// Package storeerr maps driver-level Postgres failures onto the Elder
// error taxonomy (spec §7), the way the teacher's app.ValidatePGError maps
// constraint names onto business errors — generalized here to SQLSTATE
// classes since Elder's schema has no fixed constraint-name catalog.
package storeerr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/elder-platform/elder/common"
)

// Postgres SQLSTATE codes this package dispatches on.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateDeadlockDetected    = "40P01"
	sqlStateSerializationFail   = "40001"
	sqlStateConnectionException = "08000"
	sqlStateConnectionFailure   = "08006"
)

// Translate maps err to the Elder error taxonomy when it wraps a
// *pgconn.PgError or a context deadline, otherwise returns it
// unchanged for the caller to wrap as InternalServerError.
func Translate(ctx context.Context, err error, entityType string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return common.CancelledError{Message: "operation exceeded its deadline"}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return common.EntityConflictError{
			EntityType: entityType,
			Title:      "Already Exists",
			Message:    pgErr.Detail,
			Reason:     common.ConflictUnique,
			Err:        err,
		}
	case sqlStateForeignKeyViolation:
		return common.EntityConflictError{
			EntityType: entityType,
			Title:      "Invalid Reference",
			Message:    pgErr.Detail,
			Reason:     common.ConflictForeignKey,
			Err:        err,
		}
	case sqlStateDeadlockDetected, sqlStateSerializationFail:
		return common.TransientError{
			Kind:    common.TransientDeadlock,
			Message: "a conflicting transaction was rolled back, retry",
			Err:     err,
		}
	case sqlStateConnectionException, sqlStateConnectionFailure:
		return common.TransientError{
			Kind:    common.TransientStorageUnavailable,
			Message: "storage backend is unavailable",
			Err:     err,
		}
	default:
		return common.InternalServerError{Err: err}
	}
}

// IsDeadlock reports whether err is a retryable deadlock/serialization
// failure, used by the transaction retry helper.
func IsDeadlock(err error) bool {
	var te common.TransientError
	if errors.As(err, &te) {
		return te.Kind == common.TransientDeadlock
	}

	return false
}
