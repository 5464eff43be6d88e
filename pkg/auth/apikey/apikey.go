// Package apikey authenticates operators and partner integrations with
// static API keys. Keys are kept only as SHA-256 hashes and compared in
// constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/printology/storefront/pkg/auth"
)

// HeaderName is the alternative to a bearer token for clients that
// cannot set Authorization.
const HeaderName = "X-API-Key"

// KeyEntry maps a key hash to an identity.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// Authenticator validates API keys against a static key store.
type Authenticator struct {
	keys []KeyEntry
}

// New creates an API key authenticator from a list of raw keys and
// identities. Keys are hashed immediately; plaintext keys are not stored.
// Empty keys, duplicate keys and identities without a subject are rejected.
func New(entries []RawKeyEntry) (*Authenticator, error) {
	a := &Authenticator{}
	seen := make(map[[32]byte]bool, len(entries))
	var errs []error
	for i, e := range entries {
		if e.Key == "" {
			errs = append(errs, fmt.Errorf("key %d: empty key", i))
			continue
		}
		if e.Identity.Subject == "" {
			errs = append(errs, fmt.Errorf("key %d: identity has no subject", i))
			continue
		}
		h := sha256.Sum256([]byte(e.Key))
		if seen[h] {
			errs = append(errs, fmt.Errorf("key %d: duplicate of an earlier key", i))
			continue
		}
		seen[h] = true
		a.keys = append(a.keys, KeyEntry{KeyHash: h, Identity: e.Identity})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("apikey: %w", err)
	}
	return a, nil
}

// Authenticate extracts the key and validates it.
//
// Returns Yes if valid, No if a key was presented but is unknown, and
// Abstain if no key was presented. Bearer tokens shaped like a JWT are
// left to the JWT authenticator.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	key, present := extractKey(r)
	if !present {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if key == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	keyHash := sha256.Sum256([]byte(key))
	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 {
			// Copy identity to avoid shared state.
			id := entry.Identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

func extractKey(r *http.Request) (string, bool) {
	if v, ok := r.Header[http.CanonicalHeaderKey(HeaderName)]; ok && len(v) > 0 {
		return strings.TrimSpace(v[0]), true
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if strings.Count(token, ".") == 2 {
		return "", false
	}
	return token, true
}
