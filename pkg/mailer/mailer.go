// Package mailer defines the outbound mail relay contract used by the
// contact dispatcher. Rendering happens in the relay; callers only
// choose a template and fill its parameters.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Envelope is one templated message for the relay.
type Envelope struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Sender delivers envelopes. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, env *Envelope) error
}

// StatusError reports a non-2xx reply from the relay.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("mail relay returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("mail relay returned HTTP %d", e.StatusCode)
}

// LogSender writes envelopes to a logger instead of sending them. It is
// used when no relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the envelope and reports success.
func (s LogSender) Send(ctx context.Context, env *Envelope) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keys := make([]string, 0, len(env.TemplateParams))
	for k := range env.TemplateParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []any{"template", env.TemplateID}
	for _, k := range keys {
		args = append(args, k, env.TemplateParams[k])
	}
	logger.InfoContext(ctx, "mail not sent (log driver)", args...)
	return nil
}
