// Package auth provides pluggable authentication and authorization for
// the storefront API.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain; storefronts usually let anonymous
// customers through and reserve credentials for operators.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from engine
// logic. The middleware also applies per-caller rate limits and injects the
// tenant into the request context for storage scoping.
package auth
