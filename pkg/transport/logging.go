package transport

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that emits a structured log entry for each
// generate request: request ID, message count, duration, and whether the
// sampler produced a reply.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Generator) Generator {
		return GeneratorFunc(func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
			start := time.Now()

			resp, err := next.Generate(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.Int("messages", len(req.Messages)),
				slog.Duration("duration", time.Since(start)),
			}

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			case resp.Exhausted:
				logger.LogAttrs(ctx, slog.LevelWarn, "request exhausted", attrs...)
			default:
				attrs = append(attrs, slog.Int("output_len", len(resp.Output)))
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return resp, err
		})
	}
}
