package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
)

const authorizationMetadataKey = "authorization"

// authenticate extracts the bearer token carried in ctx's incoming gRPC
// metadata and resolves it to an authz.Principal, mirroring
// adapters/http/in/principal.go's resolvePrincipal: JWTMiddleware.Authenticate
// verifies the credential down to an httputils.Principal (IdentityID,
// TenantID), then identities.Find supplies the live PortalRole that never
// rides the token itself.
func (s *Server) authenticate(ctx context.Context) (authz.Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return authz.Principal{}, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get(authorizationMetadataKey)
	if len(values) == 0 {
		return authz.Principal{}, status.Error(codes.Unauthenticated, "missing authorization metadata")
	}

	token := bearerToken(values[0])

	raw, err := s.jwt.Authenticate(ctx, token)
	if err != nil {
		return authz.Principal{}, toStatus(err)
	}

	i, err := s.identities.Find(ctx, raw.TenantID, raw.IdentityID)
	if err != nil {
		return authz.Principal{}, toStatus(err)
	}

	return authz.Principal{
		IdentityID: raw.IdentityID,
		TenantID:   raw.TenantID,
		PortalRole: i.PortalRole,
	}, nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}

	return header
}

// identityFinder is the subset of identity.Repository authenticate needs;
// kept narrow so Server doesn't have to depend on the full repository
// interface just to resolve a principal.
type identityFinder interface {
	Find(ctx context.Context, tenantID, id string) (*identity.Identity, error)
}

// toStatus translates the typed error taxonomy (common/errors.go) into gRPC
// status codes, the RPC analogue of httputils.WithError.
func toStatus(err error) error {
	switch e := err.(type) {
	case common.ValidationError:
		return status.Error(codes.InvalidArgument, e.Message)
	case common.UnauthenticatedError:
		return status.Error(codes.Unauthenticated, e.Message)
	case common.ForbiddenError:
		return status.Error(codes.PermissionDenied, e.Message)
	case common.EntityNotFoundError:
		return status.Error(codes.NotFound, e.Error())
	case common.EntityConflictError:
		return status.Error(codes.AlreadyExists, e.Error())
	case common.TransientError:
		return status.Error(codes.Unavailable, e.Message)
	case common.CancelledError:
		return status.Error(codes.DeadlineExceeded, e.Error())
	case common.RateLimitedError:
		return status.Error(codes.ResourceExhausted, e.Error())
	case common.InternalServerError:
		return status.Error(codes.Internal, "internal server error")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
