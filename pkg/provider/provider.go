package provider

import (
	"context"

	"github.com/rhuss/lorasampler/pkg/api"
)

// Sampler turns a conversation into a model reply.
//
// Generate never returns an error: an empty string means the backend could
// not produce an answer (for example because every retry failed) and must
// be treated as an absent result, not as a valid zero-length completion.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Sampler interface {
	// Name returns the sampler identifier (e.g., "predibase").
	Name() string

	// Generate returns the model's reply to conversation.
	Generate(ctx context.Context, conversation []api.Message) string

	// Close releases sampler resources (HTTP clients, connections).
	Close() error
}

// SamplerFunc adapts a plain function to the Generate half of Sampler.
// It is mostly useful for tests and harness glue.
type SamplerFunc func(ctx context.Context, conversation []api.Message) string

// Name returns "func".
func (f SamplerFunc) Name() string { return "func" }

// Generate calls f.
func (f SamplerFunc) Generate(ctx context.Context, conversation []api.Message) string {
	return f(ctx, conversation)
}

// Close is a no-op.
func (f SamplerFunc) Close() error { return nil }
