package api

import (
	"strings"

	"github.com/google/uuid"
)

const (
	exchangeIDPrefix   = "msg_"
	submissionIDPrefix = "sub_"
	sessionIDPrefix    = "sess_"
)

// NewExchangeID generates a new exchange ID ("msg_" + UUIDv4 without dashes).
func NewExchangeID() string {
	return exchangeIDPrefix + compactUUID()
}

// NewSubmissionID generates a new contact submission ID.
func NewSubmissionID() string {
	return submissionIDPrefix + compactUUID()
}

// NewSessionID generates a new chat session ID.
func NewSessionID() string {
	return sessionIDPrefix + compactUUID()
}

// ValidateSessionID checks whether the given string is a session ID
// produced by NewSessionID.
func ValidateSessionID(id string) bool {
	return validPrefixed(id, sessionIDPrefix)
}

// ValidateSubmissionID checks whether the given string is a submission ID.
func ValidateSubmissionID(id string) bool {
	return validPrefixed(id, submissionIDPrefix)
}

func validPrefixed(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok || len(rest) != 32 {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

func compactUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
