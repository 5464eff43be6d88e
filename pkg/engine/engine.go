package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/assistant"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/contact"
	"github.com/printology/storefront/pkg/storage"
	"github.com/printology/storefront/pkg/transport"
)

// Acquirer obtains one answer for a query.
type Acquirer interface {
	Acquire(ctx context.Context, query string) (assistant.Outcome, error)
	Ping(ctx context.Context) error
}

// Dispatcher delivers a contact message.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg contact.Message) (contact.Result, error)
}

// Engine orchestrates request processing between the transport layer and
// the backends. It implements transport.Storefront.
type Engine struct {
	acquirer   Acquirer
	dispatcher Dispatcher
	catalog    *catalog.Catalog
	store      storage.Store
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

// Ensure Engine implements transport.Storefront at compile time.
var _ transport.Storefront = (*Engine)(nil)

// New creates a new Engine. The acquirer, dispatcher and catalog must
// not be nil. The store can be nil, in which case transcripts and
// submissions are not kept.
func New(acq Acquirer, disp Dispatcher, cat *catalog.Catalog, store storage.Store, cfg Config, logger *slog.Logger) (*Engine, error) {
	if acq == nil {
		return nil, fmt.Errorf("engine: acquirer must not be nil")
	}
	if disp == nil {
		return nil, fmt.Errorf("engine: dispatcher must not be nil")
	}
	if cat == nil {
		return nil, fmt.Errorf("engine: catalog must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Validation == (api.ValidationConfig{}) {
		cfg.Validation = api.DefaultValidationConfig()
	}
	return &Engine{
		acquirer:   acq,
		dispatcher: disp,
		catalog:    cat,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Chat answers one customer message.
//
// A configuration problem in the assistant becomes a not_configured API
// error. A cancelled context is returned as is. An exhausted acquisition
// is still a reply: its text is the apology and its status "exhausted".
func (e *Engine) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatReply, error) {
	if apiErr := api.ValidateChatRequest(req, e.cfg.Validation); apiErr != nil {
		return nil, apiErr
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = api.NewSessionID()
	}
	query := strings.TrimSpace(req.Message)

	outcome, err := e.acquirer.Acquire(ctx, query)
	if err != nil {
		if errors.Is(err, assistant.ErrConfiguration) {
			return nil, api.NewNotConfiguredError("the shop assistant is not configured")
		}
		return nil, err
	}

	ex := &api.Exchange{
		ID:        api.NewExchangeID(),
		SessionID: sessionID,
		Query:     query,
		Model:     outcome.Model,
		Attempts:  len(outcome.Attempts),
		CreatedAt: e.now().UTC(),
	}
	if outcome.Answered() {
		ex.Status = api.ChatStatusAnswered
		ex.Reply = outcome.Text
	} else {
		ex.Status = api.ChatStatusExhausted
		ex.Reply = e.cfg.apology()
		ex.Reason = outcome.Reason
		e.logger.WarnContext(ctx, "chat exhausted",
			"session_id", sessionID,
			"request_id", transport.RequestIDFromContext(ctx),
			"attempts", ex.Attempts,
		)
	}

	e.saveExchange(ctx, ex)

	return &api.ChatReply{
		ID:        ex.ID,
		Object:    "chat.reply",
		SessionID: sessionID,
		Status:    ex.Status,
		Text:      ex.Reply,
		Model:     ex.Model,
		Attempts:  ex.Attempts,
		CreatedAt: ex.CreatedAt.Unix(),
	}, nil
}

// Greeting returns the fixed welcome message.
func (e *Engine) Greeting(_ context.Context) *api.Greeting {
	return &api.Greeting{Object: "chat.greeting", Text: e.cfg.greeting()}
}

// Transcript returns a session's recorded exchanges.
func (e *Engine) Transcript(ctx context.Context, sessionID string, opts storage.ListOptions) (*api.Transcript, error) {
	if !api.ValidateSessionID(sessionID) {
		return nil, api.NewInvalidRequestError("session_id", "session_id is malformed")
	}
	if e.store == nil {
		return &api.Transcript{Object: "list", SessionID: sessionID, Data: []api.Exchange{}}, nil
	}
	return e.store.ListExchanges(ctx, sessionID, opts)
}

// Contact dispatches a contact-form submission.
func (e *Engine) Contact(ctx context.Context, req *api.ContactRequest) (*api.ContactReply, error) {
	res, err := e.dispatcher.Dispatch(ctx, contact.MessageFromRequest(req))

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return nil, apiErr
	}
	if res.Text == "" {
		return nil, err
	}
	if err != nil {
		// Unmasked delivery failure: the sender still gets the soft
		// confirmation, operators see the error.
		e.logger.ErrorContext(ctx, "contact delivery failed",
			"submission_id", res.SubmissionID,
			"error", err,
		)
	}

	return &api.ContactReply{
		ID:      res.SubmissionID,
		Object:  "contact.reply",
		Message: res.Text,
	}, nil
}

// Catalog returns the storefront catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Submissions lists recorded contact submissions.
func (e *Engine) Submissions(ctx context.Context, opts storage.ListOptions) (*api.SubmissionList, error) {
	if opts.After != "" && !api.ValidateSubmissionID(opts.After) {
		return nil, api.NewInvalidRequestError("after", "after is not a submission id")
	}
	if e.store == nil {
		return &api.SubmissionList{Object: "list", Data: []api.Submission{}}, nil
	}
	return e.store.ListSubmissions(ctx, opts)
}

// Submission returns one recorded submission.
func (e *Engine) Submission(ctx context.Context, id string) (*api.Submission, error) {
	if e.store == nil {
		return nil, storage.ErrNotFound
	}
	return e.store.GetSubmission(ctx, id)
}

// Ready checks the store and the generative backend.
func (e *Engine) Ready(ctx context.Context) error {
	var errs []error
	if e.store != nil {
		if err := e.store.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if err := e.acquirer.Ping(ctx); err != nil {
		errs = append(errs, fmt.Errorf("assistant: %w", err))
	}
	return errors.Join(errs...)
}

// saveExchange records ex. The reply has already been produced, so
// storage problems are logged only and survive caller cancellation.
func (e *Engine) saveExchange(ctx context.Context, ex *api.Exchange) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveExchange(context.WithoutCancel(ctx), ex); err != nil {
		e.logger.ErrorContext(ctx, "recording exchange", "exchange_id", ex.ID, "error", err)
	}
}
