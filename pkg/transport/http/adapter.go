package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/observability"
	"github.com/printology/storefront/pkg/storage"
	"github.com/printology/storefront/pkg/transport"
)

// Adapter serves the storefront API over HTTP.
// It routes requests to the Storefront and serializes replies.
type Adapter struct {
	storefront  transport.Storefront
	inflight    *transport.InFlightRegistry
	mux         *http.ServeMux
	middlewares []transport.Middleware
	config      Config
	logger      *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize  int64
	ReadyTimeout time.Duration

	// AdminGuard wraps the operator endpoints under /v1/admin/. When
	// nil, those endpoints are not registered.
	AdminGuard transport.Middleware
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:  1 << 20, // 1 MB
		ReadyTimeout: 5 * time.Second,
	}
}

// NewAdapter creates an HTTP adapter for sf. Middleware wraps every
// route in the given order, outermost first.
func NewAdapter(sf transport.Storefront, cfg Config, logger *slog.Logger, middlewares ...transport.Middleware) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultConfig().ReadyTimeout
	}

	a := &Adapter{
		storefront:  sf,
		inflight:    transport.NewInFlightRegistry(),
		mux:         http.NewServeMux(),
		middlewares: middlewares,
		config:      cfg,
		logger:      logger,
	}

	a.mux.HandleFunc("POST /v1/chat", a.handleChat)
	a.mux.HandleFunc("DELETE /v1/chat/requests/{id}", a.handleCancelChat)
	a.mux.HandleFunc("GET /v1/chat/greeting", a.handleGreeting)
	a.mux.HandleFunc("GET /v1/chat/sessions/{id}/messages", a.handleTranscript)
	a.mux.HandleFunc("POST /v1/contact", a.handleContact)
	a.mux.HandleFunc("GET /v1/services", a.handleListServices)
	a.mux.HandleFunc("GET /v1/services/{id}", a.handleGetService)
	a.mux.HandleFunc("GET /v1/promotions", a.handleListPromotions)
	a.mux.HandleFunc("GET /v1/business", a.handleBusiness)

	if cfg.AdminGuard != nil {
		a.mux.Handle("GET /v1/admin/submissions", cfg.AdminGuard(http.HandlerFunc(a.handleListSubmissions)))
		a.mux.Handle("GET /v1/admin/submissions/{id}", cfg.AdminGuard(http.HandlerFunc(a.handleGetSubmission)))
	}

	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	a.mux.HandleFunc("GET /readyz", a.handleReady)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	return a
}

// Mount registers an additional handler, such as the MCP endpoint.
func (a *Adapter) Mount(pattern string, h http.Handler) {
	a.mux.Handle(pattern, h)
}

// InFlight exposes the registry of running chat acquisitions.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	// Metrics wrap the mux directly so the matched pattern is visible.
	return transport.Chain(a.middlewares...)(observability.MetricsMiddleware(a.mux))
}

// handleChat handles POST /v1/chat.
//
// The acquisition is registered under the request ID so that
// DELETE /v1/chat/requests/{id} can stop the fallback chain.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if id := transport.RequestIDFromContext(ctx); id != "" {
		if !a.inflight.Register(id, transport.CallerFromRequest(r), cancel) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("X-Request-ID", "a chat with this request ID is already running"),
				http.StatusConflict,
			)
			return
		}
		defer a.inflight.Remove(id)
	}

	reply, err := a.storefront.Chat(ctx, &req)
	if err != nil {
		a.writeChatError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (a *Adapter) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	if !transport.IsClientGone(err) {
		transport.WriteError(w, err)
		return
	}
	if r.Context().Err() != nil {
		// Nobody is listening.
		return
	}
	// Cancelled through the in-flight registry.
	transport.WriteErrorResponse(w,
		&api.APIError{Type: api.ErrorTypeInvalidRequest, Code: "cancelled", Message: "chat request was cancelled"},
		transport.StatusClientClosedRequest,
	)
}

// handleCancelChat handles DELETE /v1/chat/requests/{id}.
func (a *Adapter) handleCancelChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if a.inflight.Cancel(id, transport.CallerFromRequest(r)) {
		a.logger.InfoContext(r.Context(), "chat cancelled", "cancelled_request_id", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	transport.WriteAPIError(w, api.NewNotFoundError("no running chat with request ID "+id))
}

// handleGreeting handles GET /v1/chat/greeting.
func (a *Adapter) handleGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.storefront.Greeting(r.Context()))
}

// handleTranscript handles GET /v1/chat/sessions/{id}/messages.
func (a *Adapter) handleTranscript(w http.ResponseWriter, r *http.Request) {
	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}
	tr, err := a.storefront.Transcript(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// handleContact handles POST /v1/contact.
func (a *Adapter) handleContact(w http.ResponseWriter, r *http.Request) {
	var req api.ContactRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	reply, err := a.storefront.Contact(r.Context(), &req)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type serviceList struct {
	Object string            `json:"object"`
	Data   []catalog.Service `json:"data"`
}

type promotionList struct {
	Object string              `json:"object"`
	Data   []catalog.Promotion `json:"data"`
}

// handleListServices handles GET /v1/services.
func (a *Adapter) handleListServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, serviceList{Object: "list", Data: a.storefront.Catalog().Services})
}

// handleGetService handles GET /v1/services/{id}.
func (a *Adapter) handleGetService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	svc, ok := a.storefront.Catalog().Service(id)
	if !ok {
		transport.WriteAPIError(w, api.NewNotFoundError("service "+id+" not found"))
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// handleListPromotions handles GET /v1/promotions.
func (a *Adapter) handleListPromotions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, promotionList{Object: "list", Data: a.storefront.Catalog().Promotions})
}

// handleBusiness handles GET /v1/business.
func (a *Adapter) handleBusiness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.storefront.Catalog().Business)
}

// handleListSubmissions handles GET /v1/admin/submissions.
func (a *Adapter) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}
	list, err := a.storefront.Submissions(r.Context(), opts)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetSubmission handles GET /v1/admin/submissions/{id}.
func (a *Adapter) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateSubmissionID(id) {
		transport.WriteAPIError(w, api.NewInvalidRequestError("id", "malformed submission ID"))
		return
	}
	sub, err := a.storefront.Submission(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			transport.WriteAPIError(w, api.NewNotFoundError("submission "+id+" not found"))
			return
		}
		a.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// handleReady handles GET /readyz.
func (a *Adapter) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.config.ReadyTimeout)
	defer cancel()

	if err := a.storefront.Ready(ctx); err != nil {
		a.logger.WarnContext(r.Context(), "not ready", "error", err)
		transport.WriteErrorResponse(w, api.NewServerError(err.Error()), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ready\n"))
}

// decodeJSON reads the request body into v. It writes the error response
// and returns false when the body is unusable.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}
	return true
}

// writeStoreError writes err, logging anything that is not an API error.
func (a *Adapter) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) && !errors.Is(err, storage.ErrNotFound) {
		a.logger.ErrorContext(r.Context(), "request failed",
			"request_id", transport.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	transport.WriteError(w, err)
}

// parseListOptions extracts pagination parameters from the query string.
func parseListOptions(r *http.Request) (storage.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := storage.ListOptions{After: q.Get("after")}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return opts, api.NewInvalidRequestError("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}

	if s := q.Get("undelivered"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return opts, api.NewInvalidRequestError("undelivered", "undelivered must be true or false")
		}
		opts.UndeliveredOnly = b
	}

	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
