// Package pipeline wraps every inbound mutation and read in the fixed
// sequence spec §4.7 requires: validate, authorize, mutate, audit,
// invalidate, commit — all but the final broadcast inside one Store
// transaction (spec §4.1, §4.7).
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/cacheinvalidator"
	"github.com/elder-platform/elder/components/core/internal/domain/audit"
	"github.com/elder-platform/elder/components/core/internal/store"
)

// MutationRequest is the closure-based unit of work Pipeline executes
// inside one transaction. Resource-specific command handlers build one of
// these and hand it to Pipeline.Mutate.
type MutationRequest struct {
	TenantID     string
	Principal    authz.Principal
	Action       authz.Action
	Resource     authz.Resource
	Payload      any // validated with the `validate` struct tags before Authorize
	AuditEntity  string
	AuditID      func() string // resolved after Do runs, since creates don't know the id beforehand

	// Do performs the mutation against Store, using ctx (which carries the
	// active transaction) for every repository call. It returns the
	// before/after domain values for audit hashing; before may be nil for
	// creates.
	Do func(ctx context.Context) (before, after any, err error)

	// InvalidationKeys names the cached views this mutation's commit
	// invalidates (spec §4.7 step 4); empty for mutations that do not
	// touch structural state (e.g. decisions that don't yet resolve).
	InvalidationKeys []cacheinvalidator.Key
}

// Pipeline orchestrates MutationRequests and read-only queries over a
// shared Store transaction manager, AuthZ service, audit log, and cache
// invalidator.
type Pipeline struct {
	Tx          *store.Manager
	AuthZ       *authz.AuthZ
	Audit       audit.Repository
	Invalidator *cacheinvalidator.Invalidator

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	// QuotaRate and QuotaBurst configure the per-tenant token bucket (spec
	// SPEC_FULL §4.7); zero values disable limiting.
	QuotaRate  rate.Limit
	QuotaBurst int
}

// New builds a Pipeline. quotaRate of 0 disables the soft-quota limiter.
func New(tx *store.Manager, az *authz.AuthZ, auditRepo audit.Repository, inv *cacheinvalidator.Invalidator, quotaRate rate.Limit, quotaBurst int) *Pipeline {
	return &Pipeline{
		Tx:          tx,
		AuthZ:       az,
		Audit:       auditRepo,
		Invalidator: inv,
		limiters:    map[string]*rate.Limiter{},
		QuotaRate:   quotaRate,
		QuotaBurst:  quotaBurst,
	}
}

// limiterFor returns tenantID's token bucket, creating it on first use.
func (p *Pipeline) limiterFor(tenantID string) *rate.Limiter {
	p.limiterMu.Lock()
	defer p.limiterMu.Unlock()

	l, ok := p.limiters[tenantID]
	if !ok {
		l = rate.NewLimiter(p.QuotaRate, p.QuotaBurst)
		p.limiters[tenantID] = l
	}

	return l
}

// checkQuota enforces the per-tenant soft quota before a Store transaction
// is opened, so a rate-limited request never consumes a connection (spec
// SPEC_FULL §4.7).
func (p *Pipeline) checkQuota(tenantID string) error {
	if p.QuotaRate <= 0 {
		return nil
	}

	if !p.limiterFor(tenantID).Allow() {
		return common.RateLimitedError{TenantID: tenantID}
	}

	return nil
}

// Mutate runs req's full write sequence: schema validation, AuthZ against
// the pre-mutation snapshot, req.Do inside one Store transaction, an
// audit append, and — only after a successful commit — cache invalidation
// (spec §4.7).
func (p *Pipeline) Mutate(ctx context.Context, req MutationRequest) (any, error) {
	if err := p.checkQuota(req.TenantID); err != nil {
		return nil, err
	}

	if err := httputils.ValidateStruct(req.Payload); err != nil {
		return nil, err
	}

	if err := p.AuthZ.Authorize(ctx, req.Principal, req.Action, req.Resource); err != nil {
		return nil, err
	}

	var (
		before, after any
		doErr         error
	)

	txErr := p.Tx.WithinTx(ctx, func(txCtx context.Context) error {
		before, after, doErr = req.Do(txCtx)
		if doErr != nil {
			if auditErr := p.appendAudit(txCtx, req, before, after, audit.OutcomeFailure); auditErr != nil {
				return auditErr
			}

			return doErr
		}

		return p.appendAudit(txCtx, req, before, after, audit.OutcomeSuccess)
	})

	p.AuthZ.InvalidateMemo()

	if txErr != nil {
		return nil, txErr
	}

	if p.Invalidator != nil {
		for _, key := range req.InvalidationKeys {
			_ = p.Invalidator.Invalidate(ctx, key)
		}
	}

	return after, nil
}

// appendAudit writes req's audit record inside the active transaction; a
// failure here rolls back the whole mutation (spec §4.7 step 6).
func (p *Pipeline) appendAudit(ctx context.Context, req MutationRequest, before, after any, outcome audit.Outcome) error {
	if p.Audit == nil {
		return nil
	}

	resourceID := ""
	if req.AuditID != nil {
		resourceID = req.AuditID()
	}

	rec := &audit.Record{
		Timestamp:     time.Now(),
		TenantID:      req.TenantID,
		PrincipalID:   req.Principal.IdentityID,
		Action:        req.Action,
		ResourceType:  req.AuditEntity,
		ResourceID:    resourceID,
		BeforeHash:    hashValue(before),
		AfterHash:     hashValue(after),
		Outcome:       outcome,
		CorrelationID: correlationID(ctx),
	}

	if _, err := p.Audit.Append(ctx, rec); err != nil {
		return common.InternalServerError{Err: err}
	}

	return nil
}

// Query runs a read-only operation: schema validation of any query
// payload, AuthZ against res, then do. No transaction is opened; do
// should use Pipeline's underlying Store handles directly (spec §4.7
// "Reads follow steps 1, 2, and then a read-only Store call").
func (p *Pipeline) Query(ctx context.Context, tenantID string, principal authz.Principal, action authz.Action, res authz.Resource, payload any, do func(ctx context.Context) (any, error)) (any, error) {
	if payload != nil {
		if err := httputils.ValidateStruct(payload); err != nil {
			return nil, err
		}
	}

	if err := p.AuthZ.Authorize(ctx, principal, action, res); err != nil {
		return nil, err
	}

	result, err := do(ctx)

	p.AuthZ.InvalidateMemo()

	return result, err
}

func hashValue(v any) string {
	if v == nil {
		return ""
	}

	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

type correlationIDKey struct{}

// WithCorrelationID attaches id to ctx so Pipeline's audit records carry
// the request's correlation id through the transaction.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}

	return ""
}
