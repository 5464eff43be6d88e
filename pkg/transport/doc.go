// Package transport defines the service interfaces and HTTP middleware
// shared by the storefront's external surfaces.
//
// The HTTP adapter in the http subpackage and the MCP server both talk to
// the engine through the interfaces in this package, so neither depends
// on how answers are acquired or mail is relayed.
//
// # Service Interfaces
//
//   - ChatResponder answers chat messages and serves transcripts.
//   - ContactReceiver accepts contact-form submissions.
//   - CatalogReader exposes the read-only catalog.
//   - SubmissionLister serves recorded submissions to operators.
//   - ReadinessChecker reports whether dependencies are reachable.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns: panic
// recovery, request ID assignment (X-Request-ID), and structured logging
// via log/slog.
package transport
