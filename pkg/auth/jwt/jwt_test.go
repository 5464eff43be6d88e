package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/printology/storefront/pkg/auth"
)

// testKeyPair holds the RSA key pair used throughout the tests.
var testKeyPair *rsa.PrivateKey

func init() {
	var err error
	testKeyPair, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating test RSA key: %v", err))
	}
}

const (
	testKID    = "test-key-1"
	testSecret = "printology-operator-secret"
	testIssuer = "https://id.printology.example"
)

// jwksHandler serves the test public key and counts fetches.
func jwksHandler(fetchCount *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if fetchCount != nil {
			fetchCount.Add(1)
		}
		pub := testKeyPair.PublicKey
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{
				{"kty": "EC", "kid": "ignored"},
				{
					"kty": "RSA",
					"kid": testKID,
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
			},
		})
	}
}

func rsaToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	s, err := token.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func hmacToken(t *testing.T, secret string, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func validClaims(extra jwtlib.MapClaims) jwtlib.MapClaims {
	claims := jwtlib.MapClaims{
		"sub": "rina",
		"iss": testIssuer,
		"aud": "storefront",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	for k, v := range extra {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	return claims
}

// newJWKSAuthenticator starts a JWKS server and returns an RSA-only authenticator.
func newJWKSAuthenticator(t *testing.T, override func(*Config), fetchCount *atomic.Int32) *Authenticator {
	t.Helper()
	server := httptest.NewServer(jwksHandler(fetchCount))
	t.Cleanup(server.Close)

	cfg := Config{
		Issuer:   testIssuer,
		Audience: "storefront",
		JWKSURL:  server.URL + "/.well-known/jwks.json",
	}
	if override != nil {
		override(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func newSecretAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New(Config{Secret: testSecret, Issuer: testIssuer})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func authenticate(a *Authenticator, header string) auth.AuthResult {
	r := httptest.NewRequest("GET", "/v1/admin/submissions", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return a.Authenticate(context.Background(), r)
}

func TestNew_RequiresKeySource(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without secret or JWKS URL")
	}
}

func TestIssue_RoundTrip(t *testing.T) {
	token, err := Issue(testSecret, IssueOptions{
		Subject: "rina",
		Scopes:  []string{auth.ScopeAdmin, "read"},
		Tier:    "operator",
		Tenant:  "cabang-1",
		Issuer:  testIssuer,
		TTL:     time.Hour,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	result := authenticate(newSecretAuthenticator(t), "Bearer "+token)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes; err=%v", result.Decision, result.Err)
	}
	id := result.Identity
	if id.Subject != "rina" || id.ServiceTier != "operator" || id.TenantID() != "cabang-1" {
		t.Errorf("identity = %+v", id)
	}
	if !id.HasScope(auth.ScopeAdmin) || !id.HasScope("read") {
		t.Errorf("scopes = %v", id.Scopes)
	}
}

func TestIssue_Validation(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		opts   IssueOptions
	}{
		{"no secret", "", IssueOptions{Subject: "a", TTL: time.Hour}},
		{"no subject", testSecret, IssueOptions{TTL: time.Hour}},
		{"no ttl", testSecret, IssueOptions{Subject: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Issue(tt.secret, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHMAC_Rejections(t *testing.T) {
	a := newSecretAuthenticator(t)

	expired, _ := Issue(testSecret, IssueOptions{
		Subject: "rina", Issuer: testIssuer, TTL: time.Minute,
		Now: time.Now().Add(-time.Hour),
	})

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", hmacToken(t, "another-secret", validClaims(nil))},
		{"expired", expired},
		{"wrong issuer", hmacToken(t, testSecret, validClaims(jwtlib.MapClaims{"iss": "https://evil.example"}))},
		{"missing sub", hmacToken(t, testSecret, validClaims(jwtlib.MapClaims{"sub": nil}))},
		{"reserved sub", hmacToken(t, testSecret, validClaims(jwtlib.MapClaims{"sub": auth.AnonymousSubject}))},
		{"rsa token without jwks", rsaToken(t, validClaims(nil))},
		{"malformed", "aaa.bbb.ccc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := authenticate(a, "Bearer "+tt.token); result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
		})
	}
}

func TestAlgNoneRejected(t *testing.T) {
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, validClaims(nil)).
		SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if result := authenticate(newSecretAuthenticator(t), "Bearer "+token); result.Decision != auth.No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
}

func TestAbstains(t *testing.T) {
	a := newSecretAuthenticator(t)
	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer pk-operator-1", "Bearer "} {
		if result := authenticate(a, header); result.Decision != auth.Abstain {
			t.Errorf("header %q: Decision = %d, want Abstain", header, result.Decision)
		}
	}
}

func TestJWKS_ValidToken(t *testing.T) {
	a := newJWKSAuthenticator(t, nil, nil)

	result := authenticate(a, "Bearer "+rsaToken(t, validClaims(jwtlib.MapClaims{
		"tenant_id": "cabang-2",
		"scope":     []any{"read", auth.ScopeAdmin},
	})))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes; err=%v", result.Decision, result.Err)
	}
	if result.Identity.Subject != "rina" || result.Identity.TenantID() != "cabang-2" {
		t.Errorf("identity = %+v", result.Identity)
	}
	if !result.Identity.HasScope(auth.ScopeAdmin) {
		t.Errorf("scopes = %v", result.Identity.Scopes)
	}
}

func TestJWKS_Rejections(t *testing.T) {
	a := newJWKSAuthenticator(t, nil, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", rsaToken(t, validClaims(jwtlib.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}))},
		{"wrong audience", rsaToken(t, validClaims(jwtlib.MapClaims{"aud": "other-api"}))},
		{"wrong issuer", rsaToken(t, validClaims(jwtlib.MapClaims{"iss": "https://evil.example"}))},
		{"hmac without secret", hmacToken(t, testSecret, validClaims(nil))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := authenticate(a, "Bearer "+tt.token); result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
		})
	}
}

func TestJWKS_Caching(t *testing.T) {
	var fetchCount atomic.Int32
	a := newJWKSAuthenticator(t, nil, &fetchCount)
	token := rsaToken(t, validClaims(nil))

	for i := 0; i < 5; i++ {
		if result := authenticate(a, "Bearer "+token); result.Decision != auth.Yes {
			t.Fatalf("request %d: Decision = %d, want Yes; err=%v", i, result.Decision, result.Err)
		}
	}

	if count := fetchCount.Load(); count != 1 {
		t.Errorf("JWKS fetch count = %d, want 1", count)
	}
}

func TestJWKS_CustomClaims(t *testing.T) {
	a := newJWKSAuthenticator(t, func(cfg *Config) {
		cfg.SubjectClaim = "email"
		cfg.TenantClaim = "org_id"
		cfg.ScopesClaim = "permissions"
		cfg.TierClaim = "plan"
		cfg.Audience = ""
	}, nil)

	result := authenticate(a, "Bearer "+rsaToken(t, validClaims(jwtlib.MapClaims{
		"sub":         nil,
		"aud":         "anything",
		"email":       "rina@printology.example",
		"org_id":      "cabang-3",
		"permissions": "read write",
		"plan":        "partner",
	})))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes; err=%v", result.Decision, result.Err)
	}
	id := result.Identity
	if id.Subject != "rina@printology.example" || id.TenantID() != "cabang-3" || id.ServiceTier != "partner" {
		t.Errorf("identity = %+v", id)
	}
	if len(id.Scopes) != 2 || id.Scopes[0] != "read" || id.Scopes[1] != "write" {
		t.Errorf("Scopes = %v, want [read write]", id.Scopes)
	}
}
