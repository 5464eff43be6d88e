// Package assistant obtains a single natural-language answer from a
// hosted generative model, walking an ordered list of model candidates
// until one produces usable text.
//
// The Acquirer is stateless between calls. Each Acquire validates the
// credential, then tries candidates strictly one at a time in priority
// order. Any failure of a candidate (transport error, timeout, non-2xx
// status, unreadable body, empty text) advances to the next one without
// delay. The outcome is either Answered with trimmed text or Exhausted.
package assistant
