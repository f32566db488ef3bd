// Package transport defines the handler interface and middleware chain for
// the sampler's HTTP surface.
//
// The transport layer bridges external clients and a provider.Sampler. It
// deserializes incoming generate requests into the conversation types
// defined in pkg/api, dispatches them, and serializes the reply back to the
// client as JSON.
//
// # Handler Interface
//
// Generator is the contract between the transport layer and the sampler.
// FromSampler adapts any provider.Sampler to it. A Generator reports an
// absent reply through GenerateResponse.Exhausted rather than an error;
// errors are reserved for requests that could not be dispatched at all.
//
// # Middleware
//
// The middleware chain wraps a Generator with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
//
// # In-flight Cancellation
//
// InFlightRegistry maps request IDs to cancel functions so that a running
// generation, including one that is sleeping between retries, can be
// abandoned from a separate request.
package transport
