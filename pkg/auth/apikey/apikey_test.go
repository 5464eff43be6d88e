package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/printology/storefront/pkg/auth"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New([]RawKeyEntry{
		{
			Key: "pk-operator-1",
			Identity: auth.Identity{
				Subject:     "rina",
				ServiceTier: "operator",
				Scopes:      []string{auth.ScopeAdmin},
				Metadata:    map[string]string{"tenant_id": "cabang-1"},
			},
		},
		{
			Key: "pk-kiosk-2",
			Identity: auth.Identity{
				Subject:     "kiosk",
				ServiceTier: "kiosk",
			},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func authenticate(a *Authenticator, header, value string) auth.AuthResult {
	r, _ := http.NewRequest("GET", "/", nil)
	if header != "" {
		r.Header.Set(header, value)
	}
	return a.Authenticate(context.Background(), r)
}

func TestValidKey(t *testing.T) {
	result := authenticate(newTestAuth(t), "Authorization", "Bearer pk-operator-1")

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "rina" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "rina")
	}
	if !result.Identity.HasScope(auth.ScopeAdmin) {
		t.Error("operator key should carry admin scope")
	}
	if result.Identity.TenantID() != "cabang-1" {
		t.Errorf("TenantID = %q, want %q", result.Identity.TenantID(), "cabang-1")
	}
}

func TestHeaderKey(t *testing.T) {
	result := authenticate(newTestAuth(t), HeaderName, "pk-kiosk-2")
	if result.Decision != auth.Yes || result.Identity.Subject != "kiosk" {
		t.Fatalf("result = %+v", result)
	}
}

func TestInvalidKey(t *testing.T) {
	result := authenticate(newTestAuth(t), "Authorization", "Bearer pk-wrong")
	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
}

func TestAbstains(t *testing.T) {
	tests := []struct {
		name, header, value string
	}{
		{"no header", "", ""},
		{"basic auth", "Authorization", "Basic dXNlcjpwYXNz"},
		{"jwt-shaped bearer", "Authorization", "Bearer aaa.bbb.ccc"},
	}
	a := newTestAuth(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := authenticate(a, tt.header, tt.value); result.Decision != auth.Abstain {
				t.Errorf("Decision = %d, want Abstain", result.Decision)
			}
		})
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	a := newTestAuth(t)
	if result := authenticate(a, "Authorization", "Bearer "); result.Decision != auth.No {
		t.Errorf("empty bearer: Decision = %d, want No", result.Decision)
	}
	if result := authenticate(a, HeaderName, " "); result.Decision != auth.No {
		t.Errorf("blank header: Decision = %d, want No", result.Decision)
	}
}

func TestIdentityIsCopied(t *testing.T) {
	a := newTestAuth(t)
	first := authenticate(a, HeaderName, "pk-kiosk-2")
	first.Identity.Subject = "mutated"

	second := authenticate(a, HeaderName, "pk-kiosk-2")
	if second.Identity.Subject != "kiosk" {
		t.Errorf("stored identity was mutated: %q", second.Identity.Subject)
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	_, err := New([]RawKeyEntry{
		{Key: "", Identity: auth.Identity{Subject: "a"}},
		{Key: "k1", Identity: auth.Identity{}},
		{Key: "k2", Identity: auth.Identity{Subject: "b"}},
		{Key: "k2", Identity: auth.Identity{Subject: "c"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
