// Package storage defines the persistence contract for chat transcripts
// and contact submissions, plus helpers shared by the adapters
// (sentinel errors, tenant context).
//
// Adapters live in subpackages: memory for single-process deployments
// and tests, postgres for durable storage.
package storage
