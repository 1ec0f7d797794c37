package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
)

// fingerprintAPIKey hashes a raw opaque API key to the value stored in
// Identity.CredentialFingerprint, so the key itself is never persisted or
// logged (spec §6 Authentication).
func fingerprintAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// apiKeyResolver builds the httputils.APIKeyResolver JWTMiddleware.Protect
// uses for opaque (non-JWT) bearer credentials, looking the fingerprinted
// key up across tenants and rejecting inactive identities outright.
func apiKeyResolver(identities identity.Repository) httputils.APIKeyResolver {
	return func(ctx context.Context, apiKey string) (httputils.Principal, error) {
		i, err := identities.FindByCredentialFingerprint(ctx, fingerprintAPIKey(apiKey))
		if err != nil {
			return httputils.Principal{}, err
		}

		if !i.IsActive {
			return httputils.Principal{}, common.UnauthenticatedError{Title: "Inactive Identity", Message: "identity has been deactivated"}
		}

		return httputils.Principal{
			IdentityID: i.ID,
			Username:   i.Username,
			TenantID:   i.TenantID,
		}, nil
	}
}
