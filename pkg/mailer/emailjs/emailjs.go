// Package emailjs sends template mail through the EmailJS REST API.
package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/printology/storefront/pkg/debug"
	"github.com/printology/storefront/pkg/mailer"
)

// DefaultEndpoint is the EmailJS send API.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Config holds the EmailJS client settings.
type Config struct {
	// Endpoint overrides DefaultEndpoint (tests, proxies).
	Endpoint string

	// Timeout bounds each send. Defaults to 15s.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client implements mailer.Sender.
type Client struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

var _ mailer.Sender = (*Client)(nil)

// New creates a Client.
func New(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{endpoint: endpoint, timeout: timeout, client: client}
}

// Send posts env to the relay. Any non-2xx reply is a *mailer.StatusError.
func (c *Client) Send(ctx context.Context, env *mailer.Envelope) error {
	if env == nil {
		return errors.New("emailjs: envelope is required")
	}
	if env.ServiceID == "" || env.TemplateID == "" || env.UserID == "" {
		return errors.New("emailjs: service_id, template_id and user_id are required")
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("emailjs: marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("emailjs: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	debug.Log("contact", "relay request", "template", env.TemplateID, "bytes", len(payload))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	debug.Log("contact", "relay response", "template", env.TemplateID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &mailer.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
