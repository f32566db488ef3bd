package transport

import (
	"context"
	"fmt"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *GenerateRequest) (resp *GenerateResponse, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					retErr = NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Generate(ctx, req)
		})
	}
}
