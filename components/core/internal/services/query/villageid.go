package query

import (
	"context"

	"github.com/elder-platform/elder/components/core/internal/idallocator"
)

// ResolveVillageID validates and resolves a Village-ID to its redirect
// target, for the /r/{village_id} and /lookup/{village_id} endpoints (spec
// §6). Both are named unauthenticated endpoints, so unlike every other
// query this bypasses Pipeline.Query/AuthZ entirely: resolution exposes no
// more than the directory mapping a caller could already guess a Village-ID
// encodes, and skipping auth here is what lets it serve unauthenticated
// requests at all.
func (uc *UseCase) ResolveVillageID(ctx context.Context, villageID string) (*idallocator.Resolution, error) {
	return uc.IDs.Resolve(ctx, villageID)
}
