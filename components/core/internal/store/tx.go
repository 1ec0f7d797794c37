// Package store provides the transactional unit Pipeline wraps every
// mutation in: begin, retry-on-deadlock, commit/rollback, with the active
// *sql.Tx carried on the request context so repository adapters in
// adapters/postgres/* transparently participate in the caller's
// transaction instead of opening their own.
package store

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/bxcodec/dbresolver/v2"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/mlog"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/storeerr"
)

type txKey struct{}

// Querier is the subset of *sql.Tx / dbresolver.DB that repository adapters
// need; adapters accept it instead of a concrete type so they work whether
// or not a transaction is active on the context.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Manager begins and retries transactions over a primary/replica connection.
type Manager struct {
	DB           dbresolver.DB
	MaxRetries   int
	Logger       mlog.Logger
}

// NewManager builds a Manager with the spec default of 3 deadlock retries
// (spec §4.1).
func NewManager(db dbresolver.DB, logger mlog.Logger) *Manager {
	return &Manager{DB: db, MaxRetries: 3, Logger: logger}
}

// Querier returns the active transaction from ctx, or the primary/replica
// pool when no transaction is active (read-only calls outside Pipeline).
func (m *Manager) Querier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}

	return m.DB
}

// WithinTx runs fn inside one BEGIN...COMMIT unit, retrying deadlocks with
// jittered exponential backoff bounded by ctx's deadline (spec §4.1, §5).
// fn's ctx carries the active *sql.Tx so nested repository calls through
// Querier(ctx) see the same transaction.
func (m *Manager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	maxRetries := m.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return common.CancelledError{Message: "deadline exceeded before transaction could start"}
		}

		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}

		lastErr = err

		if !storeerr.IsDeadlock(err) || attempt == maxRetries {
			return err
		}

		if m.Logger != nil {
			m.Logger.Warnf("transaction deadlock, retrying (attempt %d/%d)", attempt+1, maxRetries)
		}

		if !sleepWithJitter(ctx, attempt) {
			return common.CancelledError{Message: "deadline exceeded during deadlock retry"}
		}
	}

	return lastErr
}

func (m *Manager) runOnce(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return storeerr.Translate(ctx, err, "")
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return storeerr.Translate(ctx, err, "")
	}

	return nil
}

func sleepWithJitter(ctx context.Context, attempt int) bool {
	base := time.Duration(1<<uint(attempt)) * 20 * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	delay := base + jitter

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}
