package in

import (
	"context"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
)

var errUnauthenticated = common.UnauthenticatedError{Title: "Missing Principal", Message: "request carries no resolved principal"}

// resolvePrincipal converts the bearer credential's identity/tenant pair —
// resolved by JWTMiddleware — into the authz.Principal every UseCase call
// needs, filling in PortalRole from the identity's own record. Unlike
// TenantID/IdentityID, PortalRole never rides the token: a revoked or
// downgraded identity must be reflected on its very next request, not only
// once its session expires (spec §4.3).
func resolvePrincipal(ctx context.Context, identities identity.Repository, p httputils.Principal) (authz.Principal, error) {
	out := authz.Principal{IdentityID: p.IdentityID, TenantID: p.TenantID}

	i, err := identities.Find(ctx, p.TenantID, p.IdentityID)
	if err != nil {
		return authz.Principal{}, err
	}

	out.PortalRole = i.PortalRole

	return out, nil
}

// principalFrom extracts the resolved httputils.Principal attached by
// JWTMiddleware.Protect and converts it to an authz.Principal.
func principalFrom(ctx context.Context, identities identity.Repository) (authz.Principal, error) {
	raw, ok := httputils.PrincipalFromContext(ctx)
	if !ok {
		return authz.Principal{}, errUnauthenticated
	}

	return resolvePrincipal(ctx, identities, raw)
}
