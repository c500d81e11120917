package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures a JWTAuthenticator. Empty Issuer or Audience skips
// that check.
type JWTConfig struct {
	Issuer   string
	Audience string

	// HeaderName carries the token. Default: "Authorization".
	HeaderName string

	// TokenPrefix precedes the token in the header. Default: "Bearer ".
	TokenPrefix string

	// PrincipalClaim names the principal claim. Default: "sub".
	PrincipalClaim string

	// RolesClaim names a claim holding a role list or a space separated
	// role string. Empty means no roles.
	RolesClaim string

	// Methods are the accepted signing algorithms. Default: HS256.
	Methods []string

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

// KeyProvider supplies verification keys by key id.
type KeyProvider interface {
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider serves one symmetric key for every key id.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider returns a provider for key.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the key, or ErrKeyNotFound when it is empty.
func (p *StaticKeyProvider) GetKey(context.Context, string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.key, nil
}

// JWTAuthenticator accepts bearer JWTs.
type JWTAuthenticator struct {
	config JWTConfig
	keys   KeyProvider
	parser *jwt.Parser
}

// NewJWTAuthenticator creates a JWTAuthenticator verifying with keys.
func NewJWTAuthenticator(config JWTConfig, keys KeyProvider) *JWTAuthenticator {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	if config.PrincipalClaim == "" {
		config.PrincipalClaim = "sub"
	}
	if len(config.Methods) == 0 {
		config.Methods = []string{jwt.SigningMethodHS256.Alg()}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(config.Methods), jwt.WithLeeway(config.Leeway)}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	return &JWTAuthenticator{config: config, keys: keys, parser: jwt.NewParser(opts...)}
}

func (a *JWTAuthenticator) Name() string { return "jwt" }

// Supports reports whether the configured header has the token prefix.
func (a *JWTAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return strings.HasPrefix(req.GetHeader(a.config.HeaderName), a.config.TokenPrefix)
}

// Authenticate verifies the bearer token. Rejections carry
// ErrMissingCredentials, ErrTokenExpired, ErrInvalidCredentials or
// ErrTokenMalformed.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	raw, ok := strings.CutPrefix(req.GetHeader(a.config.HeaderName), a.config.TokenPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return a.keys.GetKey(ctx, kid)
	})
	if err != nil {
		return AuthFailure(rejection(err), a.Name()), nil
	}
	return AuthSuccess(a.identity(claims)), nil
}

func rejection(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrInvalidCredentials
	default:
		return ErrTokenMalformed
	}
}

func (a *JWTAuthenticator) identity(claims jwt.MapClaims) *Identity {
	id := &Identity{Method: AuthMethodJWT, Claims: map[string]any(claims)}
	id.Principal, _ = claims[a.config.PrincipalClaim].(string)
	if a.config.RolesClaim != "" {
		id.Roles = stringList(claims[a.config.RolesClaim])
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		id.ExpiresAt = exp.Time
	}
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		id.IssuedAt = iat.Time
	}
	return id
}

func stringList(v any) []string {
	switch v := v.(type) {
	case string:
		return strings.Fields(v)
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IssueToken signs an HS256 token for principal with sub and iat set, exp
// set when ttl > 0, and extra claims merged in.
func IssueToken(key []byte, principal string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{"sub": principal, "iat": now.Unix()}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	for k, v := range extra {
		claims[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

var (
	_ Authenticator = (*JWTAuthenticator)(nil)
	_ KeyProvider   = (*StaticKeyProvider)(nil)
)
