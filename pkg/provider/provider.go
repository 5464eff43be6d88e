package provider

import "context"

// Provider abstracts a hosted generative-AI backend addressed by model name.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// GenerateContent sends one generation request for the named model.
	// A 2xx reply is returned as a GenerateResponse with the raw body.
	// Non-2xx replies return a *StatusError; failures before a reply
	// arrives return a *TransportError.
	GenerateContent(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error)

	// Ping checks that the backend is reachable and accepts the credential.
	Ping(ctx context.Context) error

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
