package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/auth"
	"github.com/printology/storefront/pkg/auth/jwt"
	"github.com/printology/storefront/pkg/config"
	"github.com/printology/storefront/pkg/mockbackend"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a config wired to a mock AI backend with mail logged.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	mock := httptest.NewServer(mockbackend.New(mockbackend.Config{}).Handler())
	t.Cleanup(mock.Close)

	cfg := config.Defaults()
	cfg.Assistant.BaseURL = mock.URL
	cfg.Assistant.APIKey = "AIzaTestKey"
	cfg.Assistant.Models = []string{"gemini-pro"}
	cfg.Contact.Driver = "log"
	cfg.Contact.OperatorEmail = "ops@printology.test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

func startApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	a, err := buildApp(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	ts := httptest.NewServer(a.server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestBuildApp_ServesStorefront(t *testing.T) {
	cfg := testConfig(t)
	cfg.MCP.Enabled = true
	ts := startApp(t, cfg)

	resp := do(t, http.MethodPost, ts.URL+"/v1/chat", `{"message":"Berapa harga fotokopi?"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	var reply api.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode chat reply: %v", err)
	}
	if reply.Status != api.ChatStatusAnswered || reply.Model != "gemini-pro" || !strings.Contains(reply.Text, "Rp500") {
		t.Errorf("reply = %+v", reply)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/chat/sessions/"+reply.SessionID+"/messages", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("transcript status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, ts.URL+"/v1/contact", `{"name":"Budi","email":"budi@example.com","message":"Halo"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("contact status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/services", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("services status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/readyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/admin/submissions", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("admin without auth configured: status = %d, want 404", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, ts.URL+"/mcp", "", nil)
	if resp.StatusCode == http.StatusNotFound {
		t.Error("mcp endpoint not mounted")
	}
}

func TestBuildApp_NotConfiguredKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Assistant.APIKey = "your_google_ai_api_key_here"
	ts := startApp(t, cfg)

	resp := do(t, http.MethodPost, ts.URL+"/v1/chat", `{"message":"halo"}`, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestBuildApp_APIKeyAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Type = "apikey"
	cfg.Auth.APIKeys = []config.APIKeyConfig{
		{Key: "pk-operator", Subject: "rina", Scopes: []string{auth.ScopeAdmin}},
		{Key: "pk-kiosk", Subject: "kiosk"},
	}
	ts := startApp(t, cfg)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"no admin scope", "pk-kiosk", http.StatusForbidden},
		{"invalid key", "pk-wrong", http.StatusUnauthorized},
		{"operator", "pk-operator", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.key != "" {
				h.Set("X-API-Key", tt.key)
			}
			resp := do(t, http.MethodGet, ts.URL+"/v1/admin/submissions", "", h)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	// Anonymous customers still chat.
	resp := do(t, http.MethodPost, ts.URL+"/v1/chat", `{"message":"halo"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("anonymous chat status = %d", resp.StatusCode)
	}
}

func TestBuildApp_AnonymousDisallowed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Type = "apikey"
	cfg.Auth.AllowAnonymous = false
	cfg.Auth.APIKeys = []config.APIKeyConfig{{Key: "pk-kiosk", Subject: "kiosk"}}
	ts := startApp(t, cfg)

	resp := do(t, http.MethodPost, ts.URL+"/v1/chat", `{"message":"halo"}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous chat status = %d, want 401", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/v1/services", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("catalog status = %d, want public 200", resp.StatusCode)
	}
}

func TestNewAuthMiddleware_RejectsDuplicateKeys(t *testing.T) {
	_, _, err := newAuthMiddleware(config.AuthConfig{
		Type: "apikey",
		APIKeys: []config.APIKeyConfig{
			{Key: "pk-1", Subject: "a"},
			{Key: "pk-1", Subject: "b"},
		},
	}, discardLogger())
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate key error", err)
	}
}

func TestTokenCmd_MintsVerifiableToken(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--secret", "s3cret", "--subject", "rina", "--issuer", "printology"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}
	tok := strings.TrimSpace(out.String())

	authn, err := jwt.New(jwt.Config{Secret: "s3cret", Issuer: "printology"})
	if err != nil {
		t.Fatalf("jwt.New: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/submissions", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res := authn.Authenticate(context.Background(), req)
	if res.Decision != auth.Yes {
		t.Fatalf("decision = %v, err = %v", res.Decision, res.Err)
	}
	if res.Identity.Subject != "rina" || !res.Identity.HasScope(auth.ScopeAdmin) {
		t.Errorf("identity = %+v", res.Identity)
	}
}

func TestTokenCmd_RequiresSubject(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"token", "--secret", "s3cret"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without --subject")
	}
}

func TestParseStatusMap(t *testing.T) {
	got, err := parseStatusMap([]string{"gemini-2.0-flash-exp=503", "gemini-1.5-flash=429"})
	if err != nil {
		t.Fatalf("parseStatusMap: %v", err)
	}
	if got["gemini-2.0-flash-exp"] != 503 || got["gemini-1.5-flash"] != 429 {
		t.Errorf("got %v", got)
	}

	for _, bad := range []string{"gemini", "=503", "m=abc", "m=200"} {
		if _, err := parseStatusMap([]string{bad}); err == nil {
			t.Errorf("parseStatusMap(%q) accepted", bad)
		}
	}
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := newRootCmd()
	want := map[string]bool{"serve": false, "ask": false, "check": false, "mock": false, "token": false}
	for _, c := range cmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q missing", name)
		}
	}
}
