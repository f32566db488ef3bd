package transport

import (
	"context"

	"github.com/rhuss/lorasampler/pkg/api"
	"github.com/rhuss/lorasampler/pkg/provider"
)

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	Messages api.Conversation `json:"messages"`
}

// GenerateResponse is the reply to a generate request. Exhausted is true
// when the sampler gave up and Output is therefore empty.
type GenerateResponse struct {
	Output    string `json:"output"`
	Exhausted bool   `json:"exhausted"`
}

// Generator handles the generate operation.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GeneratorFunc is an adapter that allows using an ordinary function
// as a Generator.
type GeneratorFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	return f(ctx, req)
}

// FromSampler returns a Generator backed by s. Requests containing
// messages with unknown roles are rejected with an invalid request error.
func FromSampler(s provider.Sampler) Generator {
	return GeneratorFunc(func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
		if err := req.Messages.Validate(); err != nil {
			return nil, NewInvalidRequestError("messages", err.Error())
		}
		out := s.Generate(ctx, req.Messages)
		return &GenerateResponse{Output: out, Exhausted: out == ""}, nil
	})
}
