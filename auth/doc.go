// Package auth attaches the caller's identity to request contexts.
//
// Bearer tokens are validated by JWTAuthenticator (golang-jwt). Middleware
// runs an Authenticator for every HTTP request and stores the resulting
// Identity in the request context, where call records pick up the
// principal. Requests without credentials proceed anonymously unless the
// middleware is configured to require them.
package auth
