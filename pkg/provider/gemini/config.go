package gemini

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the public Generative Language endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultAPIVersion is the API version segment used in request paths.
const DefaultAPIVersion = "v1beta"

// Config holds configuration for the Gemini provider.
type Config struct {
	// BaseURL is the API root (default DefaultBaseURL).
	BaseURL string

	// APIVersion is the path segment after the base (default "v1beta").
	APIVersion string

	// APIKey is sent as the "key" query parameter.
	APIKey string

	// Timeout bounds a call whose context has no deadline. Defaults to
	// 60s. A deadline on the context always wins, longer or shorter.
	Timeout time.Duration

	// HTTPClient overrides the client (tests).
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		APIKey:     apiKey,
		Timeout:    60 * time.Second,
	}
}
