// Package common holds the typed error taxonomy shared by every Elder
// component. Components return these types (never bare strings) so that the
// HTTP and RPC transports can translate them deterministically at the
// boundary (see common/net/http/errors.go).
package common

import (
	"fmt"
	"strings"
)

// ValidationError records a malformed payload or an out-of-range field.
// Never retried.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return e.Message
}

func (e ValidationError) Unwrap() error { return e.Err }

// UnauthenticatedError indicates the request carried no usable principal.
type UnauthenticatedError struct {
	Title   string
	Message string
	Code    string
	Err     error
}

func (e UnauthenticatedError) Error() string { return e.Message }
func (e UnauthenticatedError) Unwrap() error { return e.Err }

// ForbiddenError indicates AuthZ denied the action. Reason is drawn from a
// closed set (e.g. "no_role_on_scope", "insufficient_role",
// "cross_tenant_denied") and is always present.
type ForbiddenError struct {
	EntityType string
	Title      string
	Message    string
	Reason     string
	Err        error
}

func (e ForbiddenError) Error() string { return e.Message }
func (e ForbiddenError) Unwrap() error { return e.Err }

// NotFoundKind distinguishes the three NotFound flavors named in the spec.
type NotFoundKind string

const (
	NotFoundUnknownTenant  NotFoundKind = "unknown_tenant"
	NotFoundResourceMissing NotFoundKind = "resource_missing"
	NotFoundVillageIDUnknown NotFoundKind = "village_id_unknown"
)

// EntityNotFoundError records that a referenced resource does not exist.
type EntityNotFoundError struct {
	EntityType string
	Kind       NotFoundKind
	Title      string
	Message    string
	Err        error
}

func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}

	if e.EntityType != "" {
		return fmt.Sprintf("%s not found", e.EntityType)
	}

	return "not found"
}

func (e EntityNotFoundError) Unwrap() error { return e.Err }

// ConflictReason is the closed set named in spec §6 for HTTP 409 responses.
type ConflictReason string

const (
	ConflictUnique          ConflictReason = "unique"
	ConflictForeignKey       ConflictReason = "foreign_key"
	ConflictCycle            ConflictReason = "cycle"
	ConflictStaleRevision    ConflictReason = "stale_revision"
	ConflictDependentExists  ConflictReason = "dependent_exists"
)

// EntityConflictError records a uniqueness violation, a would-be cycle, a
// stale optimistic-concurrency revision, or an attempt to delete a resource
// with live dependents.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Reason     ConflictReason
	// Path is populated for ConflictCycle: the would-be cycle, node ids in
	// traversal order, first and last equal.
	Path []string
	Err  error
}

func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

func (e EntityConflictError) Unwrap() error { return e.Err }

// TransientKind distinguishes Deadlock (retried internally) from
// StorageUnavailable (surfaced as retryable to the caller).
type TransientKind string

const (
	TransientDeadlock           TransientKind = "deadlock"
	TransientStorageUnavailable TransientKind = "storage_unavailable"
)

// TransientError records a condition Store may retry internally; if still
// failing after the retry budget, it is surfaced unchanged.
type TransientError struct {
	Kind    TransientKind
	Title   string
	Message string
	Err     error
}

func (e TransientError) Error() string { return e.Message }
func (e TransientError) Unwrap() error { return e.Err }

// CancelledError is returned when a request or traversal exceeds its
// deadline (spec §5 Cancellation & timeouts).
type CancelledError struct {
	Message string
	Err     error
}

func (e CancelledError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "cancelled by deadline"
}

func (e CancelledError) Unwrap() error { return e.Err }

// RateLimitedError is returned when a per-tenant soft quota is exceeded
// (spec §5 Fairness).
type RateLimitedError struct {
	TenantID string
	Message  string
}

func (e RateLimitedError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("rate limit exceeded for tenant %s", e.TenantID)
}

// InternalServerError wraps an unexpected internal state. It is always
// audited with the full wrapped error but never leaked in the response
// body.
type InternalServerError struct {
	EntityType string
	Title      string
	Message    string
	Err        error
}

func (e InternalServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return "internal server error"
}

func (e InternalServerError) Unwrap() error { return e.Err }

// StaleRevisionError is a specialization raised by Store's update_if_revision
// when the caller-supplied revision does not match the current row.
type StaleRevisionError struct {
	EntityType      string
	ExpectedRevision int64
	ActualRevision   int64
}

func (e StaleRevisionError) Error() string {
	return fmt.Sprintf("%s: stale revision (expected %d, current %d)", e.EntityType, e.ExpectedRevision, e.ActualRevision)
}

// AsConflict converts a StaleRevisionError into the standard EntityConflictError
// shape used at the transport boundary.
func (e StaleRevisionError) AsConflict() EntityConflictError {
	return EntityConflictError{
		EntityType: e.EntityType,
		Title:      "Stale Revision",
		Message:    e.Error(),
		Reason:     ConflictStaleRevision,
	}
}
