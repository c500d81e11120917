package auth

import (
	"context"
	"slices"
	"time"
)

// AuthMethod names how an identity was established.
type AuthMethod string

const (
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity is the caller a request runs as.
type Identity struct {
	Principal string
	Roles     []string
	Method    AuthMethod

	// Claims holds the verified token claims, if any.
	Claims map[string]any

	ExpiresAt time.Time
	IssuedAt  time.Time
}

// AnonymousIdentity returns the identity of an unauthenticated caller.
func AnonymousIdentity() *Identity {
	return &Identity{Principal: "anonymous", Method: AuthMethodAnonymous, Claims: map[string]any{}}
}

// HasRole reports whether role was granted.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// IsExpired reports whether ExpiresAt has passed. A zero ExpiresAt never
// expires.
func (id *Identity) IsExpired() bool {
	return !id.ExpiresAt.IsZero() && time.Now().After(id.ExpiresAt)
}

// IsAnonymous reports whether id names no authenticated principal.
func (id *Identity) IsAnonymous() bool {
	return id.Principal == "" || id.Method == AuthMethodAnonymous
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// PrincipalFromContext returns the authenticated principal of ctx, or ""
// for none or an anonymous caller.
func PrincipalFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil && !id.IsAnonymous() {
		return id.Principal
	}
	return ""
}
