package transport

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRequestID creates a new unique request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestID returns middleware that makes sure every generate call carries
// a request ID. The HTTP adapter normally sets one from X-Request-ID; calls
// that arrive without one get a fresh UUID.
func RequestID() Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.Generate(ctx, req)
		})
	}
}
