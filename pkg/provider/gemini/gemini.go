package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/printology/storefront/pkg/debug"
	"github.com/printology/storefront/pkg/provider"
)

// maxBodyBytes caps how much of a reply is read into memory.
const maxBodyBytes = 1 << 20

// Provider implements provider.Provider for the Generative Language API.
type Provider struct {
	cfg    Config
	client *http.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Provider. The API key is not validated here; the
// assistant performs that check before any call.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gemini: invalid BaseURL: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	// No client-wide timeout: the caller's deadline governs each call so
	// a slow candidate is reported as a timeout, not a transport failure.
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// GenerateContent posts req to models/{model}:generateContent.
func (p *Provider) GenerateContent(ctx context.Context, model string, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	ctx, cancel := p.withDeadline(ctx)
	defer cancel()

	endpoint := p.modelURL(model, "generateContent")
	debug.Log("assistant", "candidate request", "model", model, "url", p.redacted(endpoint), "bytes", len(body))
	debug.Raw("assistant", string(body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &provider.TransportError{Model: model, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &provider.TransportError{Model: model, Err: fmt.Errorf("reading body: %w", err)}
	}

	debug.Log("assistant", "candidate response", "model", model, "status", httpResp.StatusCode, "bytes", len(data))
	debug.Raw("assistant", string(data))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &provider.StatusError{
			Model:      model,
			StatusCode: httpResp.StatusCode,
			Message:    extractErrorMessage(data),
		}
	}

	return &provider.GenerateResponse{
		Model:      model,
		StatusCode: httpResp.StatusCode,
		Body:       data,
	}, nil
}

// Ping lists models to check reachability and the credential.
func (p *Provider) Ping(ctx context.Context) error {
	ctx, cancel := p.withDeadline(ctx)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/models?%s", p.cfg.BaseURL, p.cfg.APIVersion, p.keyQuery())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini: build request: %w", err)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return &provider.TransportError{Model: "-", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return &provider.StatusError{
			Model:      "-",
			StatusCode: httpResp.StatusCode,
			Message:    extractErrorMessage(data),
		}
	}
	io.Copy(io.Discard, httpResp.Body)
	return nil
}

// withDeadline applies cfg.Timeout only when ctx carries no deadline.
func (p *Provider) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || p.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.cfg.Timeout)
}

// Close releases provider resources.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Provider) modelURL(model, method string) string {
	return fmt.Sprintf("%s/%s/models/%s:%s?%s",
		p.cfg.BaseURL, p.cfg.APIVersion, url.PathEscape(model), method, p.keyQuery())
}

func (p *Provider) keyQuery() string {
	return url.Values{"key": []string{p.cfg.APIKey}}.Encode()
}

func (p *Provider) redacted(endpoint string) string {
	if p.cfg.APIKey == "" {
		return endpoint
	}
	return strings.Replace(endpoint, url.QueryEscape(p.cfg.APIKey), debug.RedactKey(p.cfg.APIKey), 1)
}

// extractErrorMessage reads error.message from a Google API error body.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error.message").String()
}
