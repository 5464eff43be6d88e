// Package mockbackend serves deterministic stand-ins for the generative
// language API and the EmailJS relay. It backs the "printology mock"
// command and the integration tests.
package mockbackend

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/printology/storefront/pkg/mailer"
	"github.com/tidwall/gjson"
)

// EmailJSPath is the relay route, matching the public EmailJS API.
const EmailJSPath = "/api/v1.0/email/send"

// Config controls which calls fail.
type Config struct {
	// APIVersion is the first path segment of model routes (default "v1beta").
	APIVersion string

	// Models are listed by the models endpoint.
	Models []string

	// FailModels maps a model to the HTTP status it answers with.
	FailModels map[string]int

	// EmptyModels answer 200 without text.
	EmptyModels map[string]bool

	// FailTemplates maps an EmailJS template id to the status it answers with.
	FailTemplates map[string]int

	Logger *slog.Logger
}

// Backend records the calls it receives. It is safe for concurrent use.
type Backend struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	calls []string
	mails []mailer.Envelope
}

// New creates a Backend.
func New(cfg Config) *Backend {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1beta"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger}
}

// Handler returns the mock API.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /"+b.cfg.APIVersion+"/models/{call}", b.handleGenerate)
	mux.HandleFunc("GET /"+b.cfg.APIVersion+"/models", b.handleModels)
	mux.HandleFunc("POST "+EmailJSPath, b.handleSend)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

// Calls returns the models asked so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Mails returns the accepted envelopes, in order.
func (b *Backend) Mails() []mailer.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]mailer.Envelope(nil), b.mails...)
}

// Reset forgets recorded calls and mails.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
	b.mails = nil
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	model, ok := strings.CutSuffix(r.PathValue("call"), ":generateContent")
	if !ok {
		writeGoogleError(w, http.StatusNotFound, "NOT_FOUND", "unknown method")
		return
	}
	if r.URL.Query().Get("key") == "" {
		writeGoogleError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "API key not valid. Please pass a valid API key.")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !gjson.ValidBytes(body) {
		writeGoogleError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}

	b.mu.Lock()
	b.calls = append(b.calls, model)
	b.mu.Unlock()

	if status, fail := b.cfg.FailModels[model]; fail {
		b.logger.Debug("mock model failing", "model", model, "status", status)
		writeGoogleError(w, status, statusName(status), "model "+model+" is unavailable")
		return
	}

	text := ""
	if !b.cfg.EmptyModels[model] {
		text = Answer(customerQuery(gjson.GetBytes(body, "contents.0.parts.0.text").String()))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]string{{"text": text}},
			},
			"finishReason": "STOP",
		}},
		"modelVersion": model,
	})
}

func (b *Backend) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") == "" {
		writeGoogleError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "API key not valid. Please pass a valid API key.")
		return
	}
	models := make([]map[string]string, 0, len(b.cfg.Models))
	for _, m := range b.cfg.Models {
		models = append(models, map[string]string{"name": "models/" + m})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (b *Backend) handleSend(w http.ResponseWriter, r *http.Request) {
	var env mailer.Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&env); err != nil {
		http.Error(w, "The parameters are invalid", http.StatusBadRequest)
		return
	}
	if env.ServiceID == "" || env.TemplateID == "" || env.UserID == "" {
		http.Error(w, "The service ID, template ID and user ID are required", http.StatusBadRequest)
		return
	}
	if status, fail := b.cfg.FailTemplates[env.TemplateID]; fail {
		http.Error(w, "The template ID is invalid", status)
		return
	}

	b.mu.Lock()
	b.mails = append(b.mails, env)
	b.mu.Unlock()

	b.logger.Info("mock mail accepted", "template", env.TemplateID, "to", env.TemplateParams["to_email"])
	w.Write([]byte("OK"))
}

// customerQuery extracts the question from a rendered prompt. The
// default template puts it on the line after "Pelanggan: ".
func customerQuery(prompt string) string {
	_, after, ok := strings.Cut(prompt, "Pelanggan: ")
	if !ok {
		return strings.TrimSpace(prompt)
	}
	line, _, _ := strings.Cut(after, "\n")
	return strings.TrimSpace(line)
}

var answers = []struct {
	keywords []string
	text     string
}{
	{[]string{"harga", "price", "berapa", "biaya"}, "Fotokopi HVS 70gr mulai Rp500/lembar, print warna Rp2.000/lembar. Diskon 10% untuk pesanan di atas 50 lembar."},
	{[]string{"jam", "buka", "hours", "open"}, "Kami buka Senin-Sabtu pukul 08:00-20:00 WIB."},
	{[]string{"alamat", "lokasi", "address", "where"}, "Printology berada di Jl. Pendidikan No. 123, dekat kampus."},
	{[]string{"desain", "design", "custom"}, "Untuk produk custom kami sediakan konsultasi desain gratis. Silakan isi formulir kontak."},
}

// Answer returns the canned reply for a query.
func Answer(query string) string {
	q := strings.ToLower(query)
	for _, a := range answers {
		for _, k := range a.keywords {
			if strings.Contains(q, k) {
				return a.text
			}
		}
	}
	return "Terima kasih atas pertanyaannya! Tim Printology siap membantu kebutuhan cetak Anda."
}

func statusName(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	default:
		return "INTERNAL"
	}
}

func writeGoogleError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message, "status": name},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
