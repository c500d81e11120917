package auth

import (
	"context"
	"net/http"
)

// Authenticator turns request credentials into an Identity.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: a rejected credential is an AuthResult with Authenticated
//     false and Error set; a non-nil error means the check itself failed.
type Authenticator interface {
	Name() string

	// Supports reports whether req carries credentials this
	// authenticator understands.
	Supports(ctx context.Context, req *AuthRequest) bool

	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest is the part of an HTTP request authentication looks at.
type AuthRequest struct {
	Headers http.Header

	// Resource is the request path.
	Resource string
}

// GetHeader returns the first value of header key, or "".
func (r *AuthRequest) GetHeader(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// AuthResult is the outcome of Authenticate.
type AuthResult struct {
	Authenticated bool
	Identity      *Identity
	Error         error
	Method        string
}

// AuthSuccess returns an accepted result for id.
func AuthSuccess(id *Identity) *AuthResult {
	return &AuthResult{Authenticated: true, Identity: id, Method: string(id.Method)}
}

// AuthFailure returns a rejected result.
func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{Error: err, Method: method}
}
