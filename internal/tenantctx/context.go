package tenantctx

import (
	"context"
)

type tenantsKey struct{}
type actorKey struct{}
type requestIDKey struct{}
type clientIPKey struct{}

// Tenants is the validated outcome of the access guard: the set of tenant
// identifiers this request may touch and the primary one (first in the
// header) used by single-tenant operations.
type Tenants struct {
	Requested []string
	Primary   string
}

// Actor is the authenticated identity extracted from the bearer token.
type Actor struct {
	UserID  string
	Email   string
	Name    string
	Role    string
	Tenants []string
}

// WithTenants stores the guard outcome in the context.
func WithTenants(ctx context.Context, t Tenants) context.Context {
	return context.WithValue(ctx, tenantsKey{}, t)
}

// TenantsFromContext returns the guard outcome, if the guard ran.
func TenantsFromContext(ctx context.Context) (Tenants, bool) {
	if ctx == nil {
		return Tenants{}, false
	}
	t, ok := ctx.Value(tenantsKey{}).(Tenants)
	return t, ok
}

// PrimaryTenant returns the primary tenant for single-tenant operations.
func PrimaryTenant(ctx context.Context) (string, bool) {
	t, ok := TenantsFromContext(ctx)
	if !ok || t.Primary == "" {
		return "", false
	}
	return t.Primary, true
}

// WithActor stores the authenticated identity in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the authenticated identity, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// WithRequestID stores the request id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithClientIP stores the caller's apparent network address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the caller's apparent network address, or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
