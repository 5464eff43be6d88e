package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the backend replied with a non-2xx status.
type StatusError struct {
	Model      string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("model %s: HTTP %d: %s", e.Model, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model %s: HTTP %d", e.Model, e.StatusCode)
}

// RateLimited reports whether the backend rejected the call for quota reasons.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Overloaded reports whether the backend said the model is temporarily unavailable.
func (e *StatusError) Overloaded() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// TransportError is returned when no reply was received (connection
// refused, DNS failure, timeout, body read failure).
type TransportError struct {
	Model string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model %s: backend connection error: %v", e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AsStatusError extracts a *StatusError from err, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
