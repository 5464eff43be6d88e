// Package provider defines the interface the assistant uses to reach a
// hosted generative-AI backend, together with the request types and the
// error values that describe a failed call.
//
// A Provider performs exactly one HTTP exchange per call and never
// retries: choosing the next model after a failure is the caller's job.
package provider
