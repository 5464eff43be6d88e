// Package integration provides integration tests for the storefront API.
//
// Tests run against real storefront HTTP servers whose generative AI and
// mail relay calls go to the mock backend, all started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/assistant"
	"github.com/printology/storefront/pkg/auth"
	"github.com/printology/storefront/pkg/auth/apikey"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/contact"
	"github.com/printology/storefront/pkg/engine"
	"github.com/printology/storefront/pkg/mailer/emailjs"
	"github.com/printology/storefront/pkg/mockbackend"
	"github.com/printology/storefront/pkg/provider/gemini"
	"github.com/printology/storefront/pkg/storage/memory"
	transporthttp "github.com/printology/storefront/pkg/transport/http"
)

const (
	testAPIKey      = "AIzaIntegrationKey"
	operatorKey     = "pk-operator"
	operatorEmail   = "ops@printology.test"
	adminTemplate   = "template_admin"
	senderTemplate  = "template_customer"
	brokenTemplate  = "template_broken"
	answeringModel  = "gemini-1.5-flash-8b"
	overloadedModel = "gemini-2.0-flash-exp"
	emptyModel      = "gemini-1.5-flash"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds two storefronts and the mock backend they call.
//
// Storefront tries an overloaded model, then one that answers without
// text, then one that answers. Degraded has only failing models, masks
// nothing and its relay rejects the sender copy.
type TestEnvironment struct {
	Mock       *mockbackend.Backend
	MockServer *httptest.Server
	Storefront *httptest.Server
	Degraded   *httptest.Server
}

// TestMain starts the mock backend and both storefronts before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

func setupTestEnvironment() *TestEnvironment {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mock := mockbackend.New(mockbackend.Config{
		Models:        []string{answeringModel},
		FailModels:    map[string]int{overloadedModel: http.StatusServiceUnavailable, "gemini-1.0-pro": http.StatusTooManyRequests},
		EmptyModels:   map[string]bool{emptyModel: true},
		FailTemplates: map[string]int{brokenTemplate: http.StatusBadRequest},
		Logger:        logger,
	})
	mockServer := httptest.NewServer(mock.Handler())

	env := &TestEnvironment{Mock: mock, MockServer: mockServer}
	env.Storefront = httptest.NewServer(newStorefront(mockServer.URL, storefrontOptions{
		models:       []string{overloadedModel, emptyModel, answeringModel},
		senderTmpl:   senderTemplate,
		maskFailures: true,
	}, logger))
	env.Degraded = httptest.NewServer(newStorefront(mockServer.URL, storefrontOptions{
		models:       []string{overloadedModel, "gemini-1.0-pro"},
		senderTmpl:   brokenTemplate,
		maskFailures: false,
	}, logger))
	return env
}

type storefrontOptions struct {
	models       []string
	senderTmpl   string
	maskFailures bool
}

// newStorefront wires a server the way the printology command does.
func newStorefront(mockURL string, opts storefrontOptions, logger *slog.Logger) http.Handler {
	gcfg := gemini.DefaultConfig(testAPIKey)
	gcfg.BaseURL = mockURL
	prov, err := gemini.New(gcfg)
	if err != nil {
		panic(fmt.Sprintf("creating provider: %v", err))
	}

	acq, err := assistant.New(prov, assistant.Config{
		Models:     opts.models,
		APIKey:     testAPIKey,
		KeyPrefix:  "AIza",
		Generation: assistant.DefaultGeneration(),
		Logger:     logger,
	})
	if err != nil {
		panic(fmt.Sprintf("creating acquirer: %v", err))
	}

	store := memory.New(100)

	dcfg := contact.DefaultConfig()
	dcfg.ServiceID = "service_test"
	dcfg.OperatorTemplateID = adminTemplate
	dcfg.SenderTemplateID = opts.senderTmpl
	dcfg.PublicKey = "pub-test"
	dcfg.OperatorEmail = operatorEmail
	dcfg.MaskDeliveryFailures = opts.maskFailures
	dcfg.Logger = logger
	disp, err := contact.New(emailjs.New(emailjs.Config{Endpoint: mockURL + mockbackend.EmailJSPath}), store, dcfg)
	if err != nil {
		panic(fmt.Sprintf("creating dispatcher: %v", err))
	}

	cat, err := catalog.Default()
	if err != nil {
		panic(fmt.Sprintf("loading catalog: %v", err))
	}

	eng, err := engine.New(acq, disp, cat, store, engine.Config{Validation: api.DefaultValidationConfig()}, logger)
	if err != nil {
		panic(fmt.Sprintf("creating engine: %v", err))
	}

	keys, err := apikey.New([]apikey.RawKeyEntry{{
		Key:      operatorKey,
		Identity: auth.Identity{Subject: "rina", Scopes: []string{auth.ScopeAdmin}},
	}})
	if err != nil {
		panic(fmt.Sprintf("creating api keys: %v", err))
	}

	srv := transporthttp.NewServer(eng,
		transporthttp.WithLogger(logger),
		transporthttp.WithMiddleware(auth.Middleware(auth.MiddlewareConfig{
			Chain:  &auth.AuthChain{Authenticators: []auth.Authenticator{keys}, DefaultDecision: auth.Yes},
			Logger: logger,
		})),
		transporthttp.WithAdminGuard(auth.RequireScope(auth.ScopeAdmin)),
	)
	return srv.Handler()
}

// Teardown stops all servers.
func (env *TestEnvironment) Teardown() {
	for _, s := range []*httptest.Server{env.Storefront, env.Degraded, env.MockServer} {
		if s != nil {
			s.Close()
		}
	}
}

// BaseURL returns the healthy storefront base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Storefront.URL
}

// --- HTTP helpers ---

// postJSON sends a POST request with JSON body and returns the response.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// getURL sends a GET request and returns the response.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// getAsOperator sends a GET request with the operator API key.
func getAsOperator(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set(apikey.HeaderName, operatorKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}
