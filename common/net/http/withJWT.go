package http

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/patrickmn/go-cache"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/mlog"
)

const jwkDefaultDuration = time.Hour

// TokenContextValue is a wrapper type used to keep Context.Locals safe.
type TokenContextValue string

// Principal is what AuthZ resolves a verified bearer credential down to
// (spec §6 Authentication); it is attached to the request context for
// Pipeline/AuthZ to consume.
type Principal struct {
	IdentityID string
	Username   string
	TenantID   string
	// AuthMethod is "session" for a signed JWT or "api_key" for an opaque
	// API key.
	AuthMethod string
}

type principalContextKey struct{}

// ContextWithPrincipal attaches a resolved Principal to ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the Principal attached by the JWT/API-key
// middleware. The second return is false for the unauthenticated endpoints
// named in spec §6 (/healthz, /lookup/{village_id}).
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

func getTokenHeader(c *fiber.Ctx) string {
	splitToken := strings.SplitN(c.Get(headerAuthorization), "Bearer", 2)
	if len(splitToken) == 2 {
		return strings.TrimSpace(splitToken[1])
	}

	return ""
}

// looksLikeJWT distinguishes a signed session token (three dot-separated
// base64 segments) from an opaque API key.
func looksLikeJWT(tokenString string) bool {
	return strings.Count(tokenString, ".") == 2
}

// JWKProvider fetches and caches a JSON Web Key Set used to verify RS256
// session tokens (https://tools.ietf.org/html/rfc7517).
type JWKProvider struct {
	URI           string
	CacheDuration time.Duration
	cache         *cache.Cache
	once          sync.Once
}

//nolint:ireturn
func (p *JWKProvider) Fetch(ctx context.Context) (jwk.Set, error) {
	p.once.Do(func() {
		p.cache = cache.New(p.CacheDuration, p.CacheDuration)
	})

	if set, found := p.cache.Get(p.URI); found {
		return set.(jwk.Set), nil
	}

	set, err := jwk.Fetch(ctx, p.URI)
	if err != nil {
		return nil, err
	}

	p.cache.Set(p.URI, set, p.CacheDuration)

	return set, nil
}

// APIKeyResolver resolves an opaque API key to the Principal that owns it.
// The concrete implementation is backed by Store (Identity credential
// fingerprint lookup); it lives outside common so this package never
// imports the domain layer.
type APIKeyResolver func(ctx context.Context, apiKey string) (Principal, error)

// JWTMiddleware authenticates inbound requests per spec §6: bearer token,
// either an opaque API key or a signed RS256 session token.
type JWTMiddleware struct {
	JWK        *JWKProvider
	ResolveKey APIKeyResolver
}

// NewJWTMiddleware builds a JWTMiddleware backed by the JWK set at jwkURI
// and the given opaque-API-key resolver.
func NewJWTMiddleware(jwkURI string, resolve APIKeyResolver) *JWTMiddleware {
	return &JWTMiddleware{
		JWK: &JWKProvider{
			URI:           jwkURI,
			CacheDuration: jwkDefaultDuration,
		},
		ResolveKey: resolve,
	}
}

// Protect verifies the bearer credential and attaches a Principal to the
// request's user context; unauthenticated requests are rejected with 401.
func (m *JWTMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := getTokenHeader(c)

		principal, err := m.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			return WithError(c, err)
		}

		c.SetUserContext(ContextWithPrincipal(c.UserContext(), principal))

		return c.Next()
	}
}

// Authenticate verifies tokenString (an opaque API key or a signed RS256
// session token) and resolves it to a Principal. It is transport-agnostic
// so both Protect (Fiber) and the gRPC ApiSurface's auth interceptor share
// one verification path instead of each re-implementing bearer-token
// handling (spec §6 Authentication).
func (m *JWTMiddleware) Authenticate(ctx context.Context, tokenString string) (Principal, error) {
	l := mlog.NewLoggerFromContext(ctx)

	if len(tokenString) == 0 {
		return Principal{}, common.UnauthenticatedError{Title: "Missing Token", Message: "must provide a bearer token"}
	}

	if !looksLikeJWT(tokenString) {
		if m.ResolveKey == nil {
			return Principal{}, common.UnauthenticatedError{Title: "Unsupported Credential", Message: "opaque API keys are not configured"}
		}

		principal, err := m.ResolveKey(ctx, tokenString)
		if err != nil {
			return Principal{}, common.UnauthenticatedError{Title: "Invalid API Key", Message: err.Error()}
		}

		principal.AuthMethod = "api_key"

		return principal, nil
	}

	keySet, err := m.JWK.Fetch(ctx)
	if err != nil {
		l.Errorf("failed to load JWK set: %s", err.Error())
		return Principal{}, common.InternalServerError{Err: err}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}

		key, ok := keySet.LookupKeyID(kid)
		if !ok {
			return nil, errors.New("token does not match a known trusted key")
		}

		var raw any

		if err := key.Raw(&raw); err != nil {
			return nil, err
		}

		return raw, nil
	})
	if err != nil {
		return Principal{}, common.UnauthenticatedError{Title: "Invalid Session Token", Message: err.Error()}
	}

	if !token.Valid {
		return Principal{}, common.UnauthenticatedError{Title: "Invalid Session Token", Message: "token failed verification"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, common.UnauthenticatedError{Title: "Invalid Session Token", Message: "unreadable claims"}
	}

	if exp, ok := claims["exp"].(float64); ok && time.Unix(int64(exp), 0).Before(time.Now()) {
		return Principal{}, common.UnauthenticatedError{Title: "Expired Session Token", Message: "token is expired"}
	}

	principal := Principal{AuthMethod: "session"}
	if sub, ok := claims["sub"].(string); ok {
		principal.IdentityID = sub
	}

	if tenant, ok := claims["tenant_id"].(string); ok {
		principal.TenantID = tenant
	}

	if username, ok := claims["username"].(string); ok {
		principal.Username = username
	}

	return principal, nil
}
