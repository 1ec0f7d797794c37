package graph

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/elder-platform/elder/common/mlog"
)

const defaultCacheSize = 256

// Engine is the tenant-scoped facade Pipeline and the API surfaces use: a
// Builder plus an LRU of already-assembled Snapshots, invalidated by
// CacheInvalidator on writes that touch the org tree or dependency graph
// (spec §4.4, §4.9).
type Engine struct {
	builder *Builder
	logger  mlog.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, *Snapshot]
}

// NewEngine builds an Engine backed by builder, caching up to size
// per-tenant snapshots (0 uses defaultCacheSize).
func NewEngine(builder *Builder, size int, logger mlog.Logger) *Engine {
	if size <= 0 {
		size = defaultCacheSize
	}

	c, _ := lru.New[string, *Snapshot](size)

	return &Engine{builder: builder, cache: c, logger: logger}
}

// Snapshot returns tenantID's cached Snapshot, building and caching it on a
// miss.
func (e *Engine) Snapshot(ctx context.Context, tenantID string) (*Snapshot, error) {
	e.mu.Lock()
	if s, ok := e.cache.Get(tenantID); ok {
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	s, err := e.builder.Build(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache.Add(tenantID, s)
	e.mu.Unlock()

	return s, nil
}

// AncestorIDs implements authz.OrgHierarchy over this Engine's cached
// Snapshot, so AuthZ never queries Store directly for an org's ancestor
// chain (spec §4.3).
func (e *Engine) AncestorIDs(ctx context.Context, tenantID, organizationID string) ([]string, error) {
	s, err := e.Snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return s.AncestorIDs(organizationID), nil
}

// Invalidate drops tenantID's cached Snapshot, forcing the next Snapshot
// call to rebuild from Store. Called by CacheInvalidator whenever an
// organization or dependency write commits (spec §4.9).
func (e *Engine) Invalidate(tenantID string) {
	e.mu.Lock()
	e.cache.Remove(tenantID)
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Debugf("graph snapshot invalidated for tenant %s", tenantID)
	}
}
