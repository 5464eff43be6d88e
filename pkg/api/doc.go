// Package api defines the wire types shared by the Printology storefront
// backend: chat requests and replies, contact submissions, transcript
// entries, catalog payloads and the structured error envelope.
//
// The package performs no I/O. All types serialize to the JSON shapes
// served by the HTTP adapter and the MCP server.
//
// Core types:
//   - [ChatRequest] / [ChatReply]: one question to the shop assistant and its answer
//   - [ContactRequest] / [ContactReply]: a contact form submission and its confirmation text
//   - [Exchange]: one recorded question/answer pair in a chat session
//   - [Submission]: a recorded contact submission with per-recipient delivery status
//   - [APIError]: structured error with type, code, param, and message
package api
