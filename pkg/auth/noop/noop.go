// Package noop provides an authenticator that admits every caller as an
// anonymous customer. It is the whole chain when auth is disabled.
package noop

import (
	"context"
	"net/http"

	"github.com/printology/storefront/pkg/auth"
)

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

// Authenticate implements auth.Authenticator.
func (Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{Decision: auth.Yes, Identity: auth.Anonymous()}
}
