package transport

import (
	"context"

	"github.com/printology/storefront/pkg/api"
	"github.com/printology/storefront/pkg/catalog"
	"github.com/printology/storefront/pkg/storage"
)

// ChatResponder answers customer questions.
type ChatResponder interface {
	// Chat acquires one answer. An exhausted acquisition is not an
	// error; the reply carries status "exhausted" and an apology.
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatReply, error)

	// Greeting returns the welcome message for a new chat window.
	Greeting(ctx context.Context) *api.Greeting

	// Transcript returns the recorded exchanges of a session.
	Transcript(ctx context.Context, sessionID string, opts storage.ListOptions) (*api.Transcript, error)
}

// ContactReceiver handles contact-form submissions.
type ContactReceiver interface {
	Contact(ctx context.Context, req *api.ContactRequest) (*api.ContactReply, error)
}

// CatalogReader exposes the storefront catalog.
type CatalogReader interface {
	Catalog() *catalog.Catalog
}

// SubmissionLister serves recorded contact submissions to operators.
type SubmissionLister interface {
	Submissions(ctx context.Context, opts storage.ListOptions) (*api.SubmissionList, error)

	// Submission returns one submission or storage.ErrNotFound.
	Submission(ctx context.Context, id string) (*api.Submission, error)
}

// ReadinessChecker reports whether the service can do useful work.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Storefront is the full set of operations behind the external surfaces.
type Storefront interface {
	ChatResponder
	ContactReceiver
	CatalogReader
	SubmissionLister
	ReadinessChecker
}
