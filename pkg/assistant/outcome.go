package assistant

import (
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned by Outcome.Err when no candidate answered.
var ErrExhausted = errors.New("assistant: all candidates failed")

// Exhaustion reasons.
const (
	ReasonAllFailed = "all candidates failed"
	ReasonCancelled = "cancelled"
)

// OutcomeStatus is the terminal state of an acquisition.
type OutcomeStatus string

const (
	StatusAnswered  OutcomeStatus = "answered"
	StatusExhausted OutcomeStatus = "exhausted"
)

// FailureKind classifies why a candidate did not produce an answer.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureTransport   FailureKind = "transport"
	FailureTimeout     FailureKind = "timeout"
	FailureRateLimited FailureKind = "rate_limited"
	FailureOverloaded  FailureKind = "overloaded"
	FailureStatus      FailureKind = "status"
	FailureDecode      FailureKind = "decode"
	FailureEmpty       FailureKind = "empty"
)

// Attempt records one candidate call. It is diagnostic only.
type Attempt struct {
	Model      string        `json:"model"`
	Failure    FailureKind   `json:"failure,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Succeeded reports whether this attempt produced the answer.
func (a Attempt) Succeeded() bool {
	return a.Failure == FailureNone
}

// Outcome is the result of Acquire.
type Outcome struct {
	Status OutcomeStatus `json:"status"`

	// Text is the trimmed answer. Empty unless Status is StatusAnswered.
	Text string `json:"text,omitempty"`

	// Model names the candidate that answered.
	Model string `json:"model,omitempty"`

	// Reason explains an exhausted outcome.
	Reason string `json:"reason,omitempty"`

	Attempts []Attempt `json:"attempts"`
}

// Answered reports whether a candidate produced text.
func (o Outcome) Answered() bool {
	return o.Status == StatusAnswered
}

// Err returns nil for an answered outcome and an error wrapping
// ErrExhausted otherwise.
func (o Outcome) Err() error {
	if o.Answered() {
		return nil
	}
	return fmt.Errorf("%w: %s after %d attempts", ErrExhausted, o.Reason, len(o.Attempts))
}

func answered(text, model string, attempts []Attempt) Outcome {
	return Outcome{Status: StatusAnswered, Text: text, Model: model, Attempts: attempts}
}

func exhausted(reason string, attempts []Attempt) Outcome {
	return Outcome{Status: StatusExhausted, Reason: reason, Attempts: attempts}
}
