package api

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxMessageChars int
	MaxFieldChars   int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxMessageChars: 4000,
		MaxFieldChars:   200,
	}
}

// ValidateChatRequest checks a ChatRequest for validity. It returns an
// *APIError describing the first validation failure, or nil if the request is valid.
func ValidateChatRequest(req *ChatRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Message) == "" {
		return NewInvalidRequestError("message", "message is required")
	}
	if cfg.MaxMessageChars > 0 && utf8.RuneCountInString(req.Message) > cfg.MaxMessageChars {
		return NewInvalidRequestError("message",
			fmt.Sprintf("message exceeds maximum of %d characters", cfg.MaxMessageChars))
	}
	if req.SessionID != "" && !ValidateSessionID(req.SessionID) {
		return NewInvalidRequestError("session_id", "session_id is malformed")
	}
	return nil
}

// ValidateContactRequest checks a ContactRequest for validity. Name, email
// and message are required; phone and service are optional.
func ValidateContactRequest(req *ContactRequest, cfg ValidationConfig) *APIError {
	if strings.TrimSpace(req.Name) == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return NewInvalidRequestError("message", "message is required")
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return NewInvalidRequestError("email", "email is not a valid address")
	}

	fields := []struct {
		param, value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"service", req.Service},
	}
	for _, f := range fields {
		if cfg.MaxFieldChars > 0 && utf8.RuneCountInString(f.value) > cfg.MaxFieldChars {
			return NewInvalidRequestError(f.param,
				fmt.Sprintf("%s exceeds maximum of %d characters", f.param, cfg.MaxFieldChars))
		}
	}

	if cfg.MaxMessageChars > 0 && utf8.RuneCountInString(req.Message) > cfg.MaxMessageChars {
		return NewInvalidRequestError("message",
			fmt.Sprintf("message exceeds maximum of %d characters", cfg.MaxMessageChars))
	}

	return nil
}
