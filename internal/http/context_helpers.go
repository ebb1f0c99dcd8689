package httpx

import (
	"context"

	"github.com/clinova/platform/internal/domain/identity"
)

// authContextKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type authContextKey struct{}

// requestIDKey carries the per-request correlation ID.
type requestIDKey struct{}

// SetAuthContext returns a child context that carries the given caller context.
// If ac is nil, the original ctx is returned unchanged.
func SetAuthContext(ctx context.Context, ac *identity.AuthContext) context.Context {
	if ac == nil {
		return ctx
	}
	return context.WithValue(ctx, authContextKey{}, ac)
}

// AuthContextFrom returns the caller context and a boolean indicating presence.
func AuthContextFrom(ctx context.Context) (*identity.AuthContext, bool) {
	if ac, ok := ctx.Value(authContextKey{}).(*identity.AuthContext); ok && ac != nil {
		return ac, true
	}
	return nil, false
}

// IsPublicCaller reports whether the current request context carries no
// resolved caller, or one whose role normalized to public.
func IsPublicCaller(ctx context.Context) bool {
	ac, ok := AuthContextFrom(ctx)
	if !ok {
		return true
	}
	return ac.Role == identity.RolePublic
}

// SetRequestID returns a child context carrying the correlation ID.
func SetRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the correlation ID from context, or "" when absent.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
