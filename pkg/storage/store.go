package storage

import (
	"context"

	"github.com/printology/storefront/pkg/api"
)

// Page size bounds shared by adapters.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListOptions controls pagination and filtering of list queries.
type ListOptions struct {
	// Limit caps the page size (default 20, max 100).
	Limit int

	// After is a cursor: only records following this ID are returned.
	After string

	// UndeliveredOnly restricts submissions to those with a failed copy.
	UndeliveredOnly bool
}

// EffectiveLimit clamps Limit into [1, MaxLimit].
func (o ListOptions) EffectiveLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultLimit
	case o.Limit > MaxLimit:
		return MaxLimit
	}
	return o.Limit
}

// TranscriptStore records chat exchanges.
type TranscriptStore interface {
	// SaveExchange appends an exchange. Returns ErrConflict on duplicate ID.
	SaveExchange(ctx context.Context, ex *api.Exchange) error

	// ListExchanges returns a session's exchanges oldest first.
	ListExchanges(ctx context.Context, sessionID string, opts ListOptions) (*api.Transcript, error)
}

// SubmissionStore records contact submissions and their delivery status.
type SubmissionStore interface {
	// SaveSubmission persists a submission. Returns ErrConflict on duplicate ID.
	SaveSubmission(ctx context.Context, sub *api.Submission) error

	// GetSubmission returns one submission or ErrNotFound.
	GetSubmission(ctx context.Context, id string) (*api.Submission, error)

	// ListSubmissions returns submissions newest first.
	ListSubmissions(ctx context.Context, opts ListOptions) (*api.SubmissionList, error)
}

// Store is the full persistence backend.
type Store interface {
	TranscriptStore
	SubmissionStore

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
