package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/storage"
	"github.com/printology/storefront/pkg/transport"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_PublicEndpoints(t *testing.T) {
	chain := &AuthChain{DefaultDecision: No}
	handler := Middleware(MiddlewareConfig{Chain: chain})(okHandler())

	for _, path := range []string{"/healthz", "/v1/services", "/v1/services/fotokopi", "/v1/business", "/v1/chat/greeting"} {
		if rec := serve(handler, "GET", path, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestMiddleware_NoAuth_Rejects(t *testing.T) {
	chain := &AuthChain{DefaultDecision: No}
	handler := Middleware(MiddlewareConfig{Chain: chain})(okHandler())

	rec := serve(handler, "POST", "/v1/chat", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: status = %d, want 401", rec.Code)
	}

	var body api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body.Error.Type != api.ErrorTypeUnauthorized {
		t.Errorf("error type = %q, want %q", body.Error.Type, api.ErrorTypeUnauthorized)
	}
}

func TestMiddleware_ValidAuth_Passes(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{
				Decision: Yes,
				Identity: &Identity{Subject: "rina", Metadata: map[string]string{"tenant_id": "cabang-1"}},
			}},
		},
		DefaultDecision: No,
	}

	var gotTenant string
	handler := Middleware(MiddlewareConfig{Chain: chain})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = storage.GetTenant(r.Context())
		id := IdentityFromContext(r.Context())
		if id == nil || id.Subject != "rina" {
			t.Error("expected identity 'rina' in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	if rec := serve(handler, "POST", "/v1/contact", ""); rec.Code != http.StatusOK {
		t.Errorf("valid auth: status = %d, want 200", rec.Code)
	}
	if gotTenant != "cabang-1" {
		t.Errorf("tenant = %q, want %q", gotTenant, "cabang-1")
	}
}

func TestMiddleware_EmptySubjectIsServerError(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{}}}},
	}
	handler := Middleware(MiddlewareConfig{Chain: chain})(okHandler())

	if rec := serve(handler, "POST", "/v1/chat", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_RateLimit_Exceeded(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{
				Decision: Yes,
				Identity: &Identity{Subject: "rina", ServiceTier: "limited"},
			}},
		},
		DefaultDecision: No,
	}

	limiter := NewInProcessLimiter(map[string]TierConfig{
		"limited": {RequestsPerMinute: 2},
	}, 100)

	handler := Middleware(MiddlewareConfig{Chain: chain, Limiter: limiter})(okHandler())

	for i := 0; i < 2; i++ {
		if rec := serve(handler, "POST", "/v1/chat", ""); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := serve(handler, "POST", "/v1/chat", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("rate limited request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
}

func TestMiddleware_AnonymousLimitedPerAddress(t *testing.T) {
	chain := &AuthChain{DefaultDecision: Yes}
	limiter := NewInProcessLimiter(nil, 1)
	handler := Middleware(MiddlewareConfig{Chain: chain, Limiter: limiter})(okHandler())

	if rec := serve(handler, "POST", "/v1/chat", "10.0.0.1:4000"); rec.Code != http.StatusOK {
		t.Fatalf("first customer: status = %d", rec.Code)
	}
	if rec := serve(handler, "POST", "/v1/chat", "10.0.0.2:4000"); rec.Code != http.StatusOK {
		t.Errorf("second customer shares the first one's budget: status = %d", rec.Code)
	}
	if rec := serve(handler, "POST", "/v1/chat", "10.0.0.1:5000"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("repeat customer: status = %d, want 429", rec.Code)
	}
}

func TestMiddleware_RecordsCaller(t *testing.T) {
	tests := []struct {
		name  string
		chain *AuthChain
		want  string
	}{
		{
			name: "identified",
			chain: &AuthChain{Authenticators: []Authenticator{
				&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "rina"}}},
			}},
			want: "sub:rina",
		},
		{
			name:  "anonymous",
			chain: &AuthChain{DefaultDecision: Yes},
			want:  "ip:10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := Middleware(MiddlewareConfig{Chain: tt.chain})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = transport.CallerFromRequest(r)
			}))
			serve(handler, "DELETE", "/v1/chat/requests/1", "10.0.0.5:4100")
			if got != tt.want {
				t.Errorf("caller = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_NoLimiter_AllAllowed(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "rina"}}},
		},
	}
	handler := Middleware(MiddlewareConfig{Chain: chain})(okHandler())

	for i := 0; i < 100; i++ {
		if rec := serve(handler, "POST", "/v1/chat", ""); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
			break
		}
	}
}

func TestRequireScope(t *testing.T) {
	guard := RequireScope(ScopeAdmin)(okHandler())

	tests := []struct {
		name string
		id   *Identity
		want int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"anonymous", Anonymous(), http.StatusUnauthorized},
		{"customer key", &Identity{Subject: "kiosk", Scopes: []string{"chat"}}, http.StatusForbidden},
		{"operator", &Identity{Subject: "rina", Scopes: []string{ScopeAdmin}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/admin/submissions", nil)
			if tt.id != nil {
				req = req.WithContext(SetIdentity(req.Context(), tt.id))
			}
			rec := httptest.NewRecorder()
			guard.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestInProcessLimiter_WindowResets(t *testing.T) {
	limiter := NewInProcessLimiter(nil, 1)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	if err := limiter.Allow(ctx, "ip:1", ""); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := limiter.Allow(ctx, "ip:1", ""); err != ErrTooManyRequests {
		t.Fatalf("second call = %v, want ErrTooManyRequests", err)
	}

	now = now.Add(61 * time.Second)
	if err := limiter.Allow(ctx, "ip:1", ""); err != nil {
		t.Errorf("after window: %v", err)
	}
}

func TestInProcessLimiter_SweepsExpiredKeys(t *testing.T) {
	limiter := NewInProcessLimiter(nil, 10)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	for _, key := range []string{"ip:1", "ip:2", "ip:3"} {
		limiter.Allow(ctx, key, "")
	}
	if limiter.Len() != 3 {
		t.Fatalf("Len = %d, want 3", limiter.Len())
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow(ctx, "ip:4", "")
	if limiter.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", limiter.Len())
	}
}

func TestInProcessLimiter_ZeroDisables(t *testing.T) {
	limiter := NewInProcessLimiter(map[string]TierConfig{"partner": {RequestsPerMinute: 0}}, 1)
	for i := 0; i < 10; i++ {
		if err := limiter.Allow(context.Background(), "sub:x", "partner"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}

var _ Authenticator = (*mockAuthn)(nil)
