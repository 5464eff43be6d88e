// Package jwt authenticates bearer JWTs.
//
// Two verification modes are supported and may be combined: a shared
// HMAC secret for operator tokens minted with Issue, and a JWKS endpoint
// for RSA tokens from an external identity provider.
package jwt

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/printology/storefront/pkg/auth"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Secret verifies HS256 tokens. Empty disables HMAC tokens.
	Secret string

	// JWKSURL serves the RSA keys for RS256/384/512 tokens. Empty
	// disables RSA tokens.
	JWKSURL string

	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// SubjectClaim names the identity subject. Default: "sub".
	SubjectClaim string

	// TenantClaim names the tenant_id metadata. Default: "tenant_id".
	TenantClaim string

	// ScopesClaim holds the scopes, as a space-separated string or a
	// JSON array. Default: "scope".
	ScopesClaim string

	// TierClaim names the rate-limit tier. Default: "tier".
	TierClaim string

	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration

	// CacheTTL controls how long JWKS keys are cached. Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient fetches the JWKS. Default: http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.SubjectClaim == "" {
		c.SubjectClaim = "sub"
	}
	if c.TenantClaim == "" {
		c.TenantClaim = "tenant_id"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.TierClaim == "" {
		c.TierClaim = "tier"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config Config
	jwks   *jwksCache // nil without JWKSURL
}

// New creates a JWT authenticator. At least one of Secret and JWKSURL
// must be set.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("jwt: either a secret or a JWKS URL is required")
	}
	cfg.applyDefaults()

	a := &Authenticator{config: cfg}
	if cfg.JWKSURL != "" {
		a.jwks = &jwksCache{
			keys:   make(map[string]*rsa.PublicKey),
			ttl:    cfg.CacheTTL,
			url:    cfg.JWKSURL,
			client: cfg.HTTPClient,
		}
	}
	return a, nil
}

// Authenticate extracts a bearer token from the Authorization header,
// validates it, and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no bearer token, or one that is not JWT-shaped
//   - No: a JWT that fails verification (signature, expiry, issuer, ...)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if strings.Count(tokenStr, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	token, err := jwtlib.Parse(tokenStr, a.keyFunc(ctx), a.parserOptions()...)
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("invalid JWT: %w", err)}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("invalid JWT claims")}
	}

	identity, err := a.identity(claims)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}
	return auth.AuthResult{Decision: auth.Yes, Identity: identity}
}

// keyFunc resolves the verification key by signing method.
func (a *Authenticator) keyFunc(ctx context.Context) jwtlib.Keyfunc {
	return func(token *jwtlib.Token) (any, error) {
		switch token.Method.(type) {
		case *jwtlib.SigningMethodHMAC:
			if a.config.Secret == "" {
				return nil, errors.New("HMAC tokens are not accepted")
			}
			return []byte(a.config.Secret), nil

		case *jwtlib.SigningMethodRSA:
			if a.jwks == nil {
				return nil, errors.New("RSA tokens are not accepted")
			}
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token missing kid header")
			}
			key, err := a.jwks.getKey(ctx, kid)
			if err != nil {
				return nil, fmt.Errorf("fetching JWKS key for kid %q: %w", kid, err)
			}
			return key, nil
		}
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	var methods []string
	if a.config.Secret != "" {
		methods = append(methods, "HS256")
	}
	if a.jwks != nil {
		methods = append(methods, "RS256", "RS384", "RS512")
	}

	opts := []jwtlib.ParserOption{jwtlib.WithValidMethods(methods)}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}
	if a.config.Leeway > 0 {
		opts = append(opts, jwtlib.WithLeeway(a.config.Leeway))
	}
	return opts
}

func (a *Authenticator) identity(claims jwtlib.MapClaims) (*auth.Identity, error) {
	subject := claimString(claims, a.config.SubjectClaim)
	if subject == "" {
		return nil, fmt.Errorf("JWT missing %q claim", a.config.SubjectClaim)
	}
	if subject == auth.AnonymousSubject {
		return nil, errors.New("JWT subject is reserved")
	}

	id := &auth.Identity{
		Subject:     subject,
		ServiceTier: claimString(claims, a.config.TierClaim),
		Scopes:      extractScopes(claims, a.config.ScopesClaim),
		Metadata:    make(map[string]string),
	}
	if tenant := claimString(claims, a.config.TenantClaim); tenant != "" {
		id.Metadata["tenant_id"] = tenant
	}
	return id, nil
}

// IssueOptions describes an operator token.
type IssueOptions struct {
	Subject  string
	Scopes   []string
	Tier     string
	Tenant   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      time.Time
}

// Issue mints an HS256 token that an Authenticator configured with the
// same secret accepts. The claim names are the defaults.
func Issue(secret string, opts IssueOptions) (string, error) {
	if secret == "" {
		return "", errors.New("jwt: secret is required")
	}
	if opts.Subject == "" {
		return "", errors.New("jwt: subject is required")
	}
	if opts.TTL <= 0 {
		return "", errors.New("jwt: ttl must be positive")
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	claims := jwtlib.MapClaims{
		"sub": opts.Subject,
		"iat": now.Unix(),
		"exp": now.Add(opts.TTL).Unix(),
	}
	if len(opts.Scopes) > 0 {
		claims["scope"] = strings.Join(opts.Scopes, " ")
	}
	if opts.Tier != "" {
		claims["tier"] = opts.Tier
	}
	if opts.Tenant != "" {
		claims["tenant_id"] = opts.Tenant
	}
	if opts.Issuer != "" {
		claims["iss"] = opts.Issuer
	}
	if opts.Audience != "" {
		claims["aud"] = opts.Audience
	}

	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// claimString returns a string claim, or empty when missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// extractScopes reads a space-separated string or a JSON array.
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	switch val := claims[key].(type) {
	case string:
		if parts := strings.Fields(val); len(parts) > 0 {
			return parts
		}
	case []any:
		var scopes []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
