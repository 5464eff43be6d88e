package assistant

import (
	"errors"
	"strings"
)

// ErrConfiguration reports that the acquirer cannot make any call because
// its credential is unusable. No network attempt is made.
var ErrConfiguration = errors.New("assistant: API key is not valid")

// PlaceholderKey is the value shipped in sample configuration.
const PlaceholderKey = "your_google_ai_api_key_here"

// DefaultKeyPrefix is the prefix every Google API key starts with.
const DefaultKeyPrefix = "AIza"

// ConfigurationError describes why the credential was rejected.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return ErrConfiguration.Error() + ": " + e.Reason
}

// Is makes errors.Is(err, ErrConfiguration) true.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidateCredential checks key against the static rules. An empty prefix
// disables the prefix rule.
func ValidateCredential(key, prefix string) error {
	switch {
	case key == "":
		return &ConfigurationError{Reason: "key is empty"}
	case strings.Contains(key, PlaceholderKey):
		return &ConfigurationError{Reason: "key is the sample placeholder"}
	case prefix != "" && !strings.HasPrefix(key, prefix):
		return &ConfigurationError{Reason: "key does not start with " + prefix}
	}
	return nil
}
