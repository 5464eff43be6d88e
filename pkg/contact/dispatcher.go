package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/mailer"
	"github.com/printology/storefront/pkg/observability"
	"github.com/printology/storefront/pkg/storage"
)

// Confirmation texts shown to the sender.
const (
	TextConfirmed = "Email berhasil dikirim!"
	TextReceived  = "Pesan diterima! Admin akan menghubungi Anda."
)

// ErrDeliveryFailed is reported, when failures are not masked, for each
// copy the relay did not accept.
var ErrDeliveryFailed = errors.New("contact: delivery failed")

// Recipient identifies one outbound copy.
type Recipient string

const (
	RecipientOperator Recipient = "operator"
	RecipientSender   Recipient = "sender"
)

// DeliveryError wraps the relay error for one recipient.
type DeliveryError struct {
	Recipient Recipient
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %s copy: %v", ErrDeliveryFailed, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{ErrDeliveryFailed, e.Err} }

// Result is what the sender sees.
type Result struct {
	// SubmissionID identifies the recorded submission for follow-up.
	SubmissionID string

	// Text is the single confirmation message.
	Text string
}

// Config configures a Dispatcher.
type Config struct {
	ServiceID          string
	OperatorTemplateID string
	SenderTemplateID   string
	PublicKey          string
	AccessToken        string

	// OperatorEmail receives the operator copy.
	OperatorEmail string

	// BusinessEmail and BusinessPhone appear in the sender copy.
	// BusinessEmail defaults to OperatorEmail.
	BusinessEmail string
	BusinessPhone string

	// TeamName signs the sender copy (default "Printology Team").
	TeamName string

	// Location renders timestamps (default Asia/Jakarta, UTC if unavailable).
	Location *time.Location

	// MaskDeliveryFailures hides relay failures from the caller. The
	// sender still sees TextReceived instead of TextConfirmed.
	MaskDeliveryFailures bool

	// SendTimeout bounds each copy separately (default 15s).
	SendTimeout time.Duration

	Validation api.ValidationConfig
	Logger     *slog.Logger

	// Now overrides the clock (tests).
	Now func() time.Time
}

// DefaultConfig returns the storefront defaults with failures masked.
func DefaultConfig() Config {
	return Config{
		BusinessPhone:        "+62 822-6009-8942",
		TeamName:             "Printology Team",
		MaskDeliveryFailures: true,
		SendTimeout:          15 * time.Second,
		Validation:           api.DefaultValidationConfig(),
	}
}

// Dispatcher sends the two copies of a contact message. It is safe for
// concurrent use.
type Dispatcher struct {
	cfg    Config
	sender mailer.Sender
	store  storage.SubmissionStore
	logger *slog.Logger
}

// New creates a Dispatcher. store may be nil, in which case submissions
// are not recorded.
func New(sender mailer.Sender, store storage.SubmissionStore, cfg Config) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("contact: sender is required")
	}
	if cfg.OperatorEmail == "" {
		return nil, errors.New("contact: operator email is required")
	}
	if cfg.BusinessEmail == "" {
		cfg.BusinessEmail = cfg.OperatorEmail
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "Printology Team"
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation("Asia/Jakarta")
		if err != nil {
			loc = time.UTC
		}
		cfg.Location = loc
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{cfg: cfg, sender: sender, store: store, logger: logger}, nil
}

// Dispatch validates msg, sends the operator copy, then the sender copy
// regardless of the first outcome, and returns the confirmation.
//
// A validation problem returns an *api.APIError and nothing is sent.
// Delivery failures never change the fact that a Result is returned;
// when MaskDeliveryFailures is false they are also returned as an error
// wrapping ErrDeliveryFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (Result, error) {
	if apiErr := msg.Validate(d.cfg.Validation); apiErr != nil {
		return Result{}, apiErr
	}

	now := d.cfg.Now()
	sub := &api.Submission{
		ID:        api.NewSubmissionID(),
		Name:      msg.Name,
		Email:     msg.Email,
		Phone:     msg.Phone,
		Service:   msg.Service,
		Message:   msg.Body,
		CreatedAt: now,
	}

	opErr := d.send(ctx, RecipientOperator, d.operatorEnvelope(msg, now))
	senderErr := d.send(ctx, RecipientSender, d.senderEnvelope(msg, now))

	sub.OperatorStatus = deliveryStatus(opErr)
	sub.SenderStatus = deliveryStatus(senderErr)
	d.record(ctx, sub)

	result := Result{SubmissionID: sub.ID, Text: TextReceived}
	confirmation := "received"
	if opErr == nil && senderErr == nil {
		result.Text = TextConfirmed
		confirmation = "confirmed"
	}
	observability.DispatchesTotal.WithLabelValues(confirmation).Inc()

	d.logger.Info("contact dispatched",
		"submission_id", sub.ID,
		"operator", sub.OperatorStatus,
		"sender", sub.SenderStatus,
	)

	if d.cfg.MaskDeliveryFailures {
		return result, nil
	}

	var errs []error
	if opErr != nil {
		errs = append(errs, &DeliveryError{Recipient: RecipientOperator, Err: opErr})
	}
	if senderErr != nil {
		errs = append(errs, &DeliveryError{Recipient: RecipientSender, Err: senderErr})
	}
	return result, errors.Join(errs...)
}

// send delivers one copy under its own deadline. The parent context's
// values are kept but its cancellation is not, so the second copy is
// still attempted after the caller goes away.
func (d *Dispatcher) send(ctx context.Context, to Recipient, env *mailer.Envelope) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.SendTimeout)
	defer cancel()

	err := d.sender.Send(sendCtx, env)
	observability.DeliveriesTotal.WithLabelValues(string(to), string(deliveryStatus(err))).Inc()
	if err != nil {
		d.logger.Warn("contact copy not delivered", "recipient", to, "error", err)
	}
	return err
}

// record persists the submission. Storage problems are logged only; the
// sender has already been handled.
func (d *Dispatcher) record(ctx context.Context, sub *api.Submission) {
	if d.store == nil {
		return
	}
	if err := d.store.SaveSubmission(context.WithoutCancel(ctx), sub); err != nil {
		d.logger.Error("recording submission", "submission_id", sub.ID, "error", err)
	}
}

func deliveryStatus(err error) api.DeliveryStatus {
	if err != nil {
		return api.DeliveryStatusFailed
	}
	return api.DeliveryStatusSent
}
