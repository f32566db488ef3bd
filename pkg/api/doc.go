// Package api defines the core types shared by the sampler: conversation
// messages handed over by an evaluation harness, and the two error kinds
// the adapter produces.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [Message]: one role/content turn of a conversation
//   - [Conversation]: ordered list of messages
//   - [ConfigurationError]: invalid or missing adapter configuration
//   - [CallError]: a failed remote completion call, classified by [ErrorKind]
package api
