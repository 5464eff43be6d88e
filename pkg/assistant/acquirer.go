package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/printology/storefront/pkg/debug"
	"github.com/printology/storefront/pkg/observability"
	"github.com/printology/storefront/pkg/provider"
)

// answerPath locates the first text part of the first candidate.
const answerPath = "candidates.0.content.parts.0.text"

// DefaultCandidateTimeout bounds a single candidate call.
const DefaultCandidateTimeout = 20 * time.Second

// DefaultModels is the fallback order used when none is configured.
var DefaultModels = []string{
	"gemini-2.0-flash-exp",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
}

// DefaultGeneration returns the sampling parameters for storefront chat.
func DefaultGeneration() provider.GenerationConfig {
	return provider.GenerationConfig{
		Temperature:     0.7,
		MaxOutputTokens: 150,
		TopP:            0.85,
		TopK:            20,
	}
}

// Config configures an Acquirer.
type Config struct {
	// Models is the candidate list in priority order. It is copied.
	Models []string

	// APIKey is checked before every acquisition.
	APIKey string

	// KeyPrefix is the required key prefix. Empty disables the rule.
	KeyPrefix string

	// Prompt is the system prompt. Empty uses DefaultPrompt.
	Prompt string

	// Template combines prompt and query. Empty uses DefaultTemplate.
	Template string

	Generation provider.GenerationConfig

	// Safety is sent with every request. Nil means BLOCK_NONE for all
	// known categories.
	Safety []provider.SafetySetting

	// CandidateTimeout bounds each candidate call. Zero uses
	// DefaultCandidateTimeout.
	CandidateTimeout time.Duration

	Logger *slog.Logger
}

// Acquirer turns a query into an Outcome by trying candidates in order.
// It is safe for concurrent use.
type Acquirer struct {
	backend    provider.Provider
	models     []string
	apiKey     string
	keyPrefix  string
	prompt     string
	template   string
	generation provider.GenerationConfig
	safety     []provider.SafetySetting
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates an Acquirer. The credential is not checked here so a
// misconfigured server still starts and reports the problem per request.
func New(backend provider.Provider, cfg Config) (*Acquirer, error) {
	if backend == nil {
		return nil, errors.New("assistant: provider is required")
	}

	tmpl := cfg.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt()
	}

	safety := cfg.Safety
	if safety == nil {
		safety = provider.UniformSafety(provider.BlockNone)
	}

	generation := cfg.Generation
	if generation == (provider.GenerationConfig{}) {
		generation = DefaultGeneration()
	}

	timeout := cfg.CandidateTimeout
	if timeout <= 0 {
		timeout = DefaultCandidateTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Acquirer{
		backend:    backend,
		models:     append([]string(nil), cfg.Models...),
		apiKey:     cfg.APIKey,
		keyPrefix:  cfg.KeyPrefix,
		prompt:     prompt,
		template:   tmpl,
		generation: generation,
		safety:     append([]provider.SafetySetting(nil), safety...),
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// Models returns a copy of the candidate order.
func (a *Acquirer) Models() []string {
	return append([]string(nil), a.models...)
}

// Acquire obtains one answer for query.
//
// A rejected credential returns a *ConfigurationError and no attempt is
// made. Otherwise the candidates are tried one at a time; the first
// non-empty text wins. If ctx is cancelled between or during attempts
// the loop stops and returns an exhausted outcome together with the
// context error. Exhaustion of the list is not an error; inspect the
// Outcome.
func (a *Acquirer) Acquire(ctx context.Context, query string) (Outcome, error) {
	if err := ValidateCredential(a.apiKey, a.keyPrefix); err != nil {
		observability.AcquisitionsTotal.WithLabelValues("not_configured").Inc()
		a.logger.Warn("assistant not configured", "error", err)
		return Outcome{}, err
	}

	observability.ChatsInFlight.Inc()
	defer observability.ChatsInFlight.Dec()

	req := a.buildRequest(query)
	attempts := make([]Attempt, 0, len(a.models))

	for i := 0; i < len(a.models); i++ {
		if err := ctx.Err(); err != nil {
			return a.finish(exhausted(ReasonCancelled, attempts)), err
		}

		model := a.models[i]
		attempt, text := a.try(ctx, model, req)
		attempts = append(attempts, attempt)

		if attempt.Succeeded() {
			a.logger.Debug("candidate answered", "model", model, "index", i, "duration", attempt.Duration)
			return a.finish(answered(text, model, attempts)), nil
		}

		a.logger.Debug("candidate failed",
			"model", model,
			"index", i,
			"failure", attempt.Failure,
			"status", attempt.StatusCode,
		)
	}

	if err := ctx.Err(); err != nil {
		return a.finish(exhausted(ReasonCancelled, attempts)), err
	}

	a.logger.Warn("all candidates failed", "attempts", len(attempts))
	return a.finish(exhausted(ReasonAllFailed, attempts)), nil
}

// Ping checks that the backend is reachable with the configured key.
func (a *Acquirer) Ping(ctx context.Context) error {
	if err := ValidateCredential(a.apiKey, a.keyPrefix); err != nil {
		return err
	}
	return a.backend.Ping(ctx)
}

// try performs one candidate call under its own deadline.
func (a *Acquirer) try(ctx context.Context, model string, req *provider.GenerateRequest) (Attempt, string) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.backend.GenerateContent(callCtx, model, req)
	elapsed := time.Since(start)

	attempt := Attempt{Model: model, Duration: elapsed}
	observability.CandidateLatency.WithLabelValues(model).Observe(elapsed.Seconds())

	var text string
	if err != nil {
		attempt.Failure, attempt.StatusCode = classify(callCtx, err)
	} else {
		attempt.StatusCode = resp.StatusCode
		text, attempt.Failure = extractAnswer(resp.Body)
	}

	result := string(attempt.Failure)
	if attempt.Succeeded() {
		result = string(StatusAnswered)
	}
	observability.CandidateAttemptsTotal.WithLabelValues(model, result).Inc()

	return attempt, text
}

func (a *Acquirer) buildRequest(query string) *provider.GenerateRequest {
	return &provider.GenerateRequest{
		Contents: []provider.Content{{
			Role:  "user",
			Parts: []provider.Part{{Text: fmt.Sprintf(a.template, a.prompt, query)}},
		}},
		GenerationConfig: a.generation,
		SafetySettings:   a.safety,
	}
}

func (a *Acquirer) finish(o Outcome) Outcome {
	outcome := string(o.Status)
	if o.Reason == ReasonCancelled {
		outcome = ReasonCancelled
	}
	observability.AcquisitionsTotal.WithLabelValues(outcome).Inc()
	observability.AcquisitionAttempts.Observe(float64(len(o.Attempts)))
	debug.Log("assistant", "acquisition finished", "status", o.Status, "model", o.Model, "attempts", len(o.Attempts))
	return o
}

// classify maps a provider error to a failure kind.
func classify(callCtx context.Context, err error) (FailureKind, int) {
	if se, ok := provider.AsStatusError(err); ok {
		switch {
		case se.RateLimited():
			return FailureRateLimited, se.StatusCode
		case se.Overloaded():
			return FailureOverloaded, se.StatusCode
		default:
			return FailureStatus, se.StatusCode
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return FailureTimeout, 0
	}
	return FailureTransport, 0
}

// extractAnswer reads the answer text from a 2xx body.
func extractAnswer(body []byte) (string, FailureKind) {
	if !gjson.ValidBytes(body) {
		return "", FailureDecode
	}
	text := strings.TrimSpace(gjson.GetBytes(body, answerPath).String())
	if text == "" {
		return "", FailureEmpty
	}
	return text, FailureNone
}
