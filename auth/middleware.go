package auth

import (
	"net/http"
)

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// Required rejects requests without valid credentials with 401.
	// When false such requests proceed with an anonymous identity.
	Required bool

	// OnError is called with internal authenticator errors. Optional.
	OnError func(r *http.Request, err error)
}

// Middleware authenticates each request with a and stores the identity in
// the request context.
//
// Requests the authenticator does not support are anonymous. Requests that
// carry credentials which fail validation get 401 regardless of Required.
//
// Usage:
//
//	mux.Handle("/api/", auth.Middleware(jwtAuth, auth.MiddlewareConfig{})(apiHandler))
func Middleware(a Authenticator, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := &AuthRequest{Headers: r.Header, Resource: r.URL.Path}

			if a == nil || !a.Supports(ctx, req) {
				if cfg.Required {
					unauthorized(w, ErrMissingCredentials)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, AnonymousIdentity())))
				return
			}

			result, err := a.Authenticate(ctx, req)
			if err != nil {
				if cfg.OnError != nil {
					cfg.OnError(r, err)
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !result.Authenticated {
				unauthorized(w, result.Error)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, result.Identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	msg := http.StatusText(http.StatusUnauthorized)
	if err != nil {
		msg = err.Error()
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="calltrace"`)
	http.Error(w, msg, http.StatusUnauthorized)
}
