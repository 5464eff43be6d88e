package auth

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/observability"
	"github.com/printology/storefront/pkg/storage"
	"github.com/printology/storefront/pkg/transport"
)

// PublicEndpoints lists paths that skip authentication and rate limiting.
// An entry ending in "/" matches every path below it.
var PublicEndpoints = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/chat/greeting",
	"/v1/services",
	"/v1/services/",
	"/v1/promotions",
	"/v1/business",
}

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	Chain   *AuthChain
	Limiter RateLimiter // optional

	// Public defaults to PublicEndpoints when nil.
	Public []string

	Logger *slog.Logger
}

// Middleware creates HTTP middleware that authenticates the caller,
// enforces rate limits, and injects the identity and tenant into the
// request context.
func Middleware(cfg MiddlewareConfig) transport.Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	public := cfg.Public
	if public == nil {
		public = PublicEndpoints
	}
	isPublic := matcher(public)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			result := cfg.Chain.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil {
				logger.WarnContext(r.Context(), "authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				transport.WriteAPIError(w, api.NewUnauthorizedError("authentication required"))
				return
			}

			id := result.Identity
			if id.Subject == "" {
				logger.ErrorContext(r.Context(), "authenticator returned identity with empty subject")
				transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
				return
			}

			if cfg.Limiter != nil {
				if err := cfg.Limiter.Allow(r.Context(), limitKey(id, r), id.ServiceTier); err != nil {
					logger.WarnContext(r.Context(), "rate limit exceeded",
						"subject", id.Subject,
						"tier", id.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(tierLabel(id.ServiceTier)).Inc()
					w.Header().Set("Retry-After", "60")
					transport.WriteAPIError(w, api.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}

			ctx := SetIdentity(r.Context(), id)
			ctx = transport.ContextWithCaller(ctx, limitKey(id, r))
			if tenantID := id.TenantID(); tenantID != "" {
				ctx = storage.SetTenant(ctx, tenantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope returns middleware that admits only identities holding
// scope. It must run inside Middleware.
func RequireScope(scope string) transport.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			switch {
			case id.IsAnonymous():
				transport.WriteAPIError(w, api.NewUnauthorizedError("authentication required"))
			case !id.HasScope(scope):
				transport.WriteAPIError(w, api.NewForbiddenError("scope "+scope+" required"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func matcher(paths []string) func(string) bool {
	exact := make(map[string]bool, len(paths))
	var prefixes []string
	for _, p := range paths {
		if strings.HasSuffix(p, "/") {
			prefixes = append(prefixes, p)
		} else {
			exact[p] = true
		}
	}
	return func(path string) bool {
		if exact[path] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// limitKey buckets anonymous callers by client address and everyone
// else by subject.
func limitKey(id *Identity, r *http.Request) string {
	if !id.IsAnonymous() {
		return "sub:" + id.Subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func tierLabel(tier string) string {
	if tier == "" {
		return "default"
	}
	return tier
}
