package transport

import "log/slog"

// Middleware decorates a Generator. Sampler calls can block for the whole
// retry schedule, so middleware must pass ctx through unchanged for
// cancellation to reach the backoff sleep.
type Middleware func(Generator) Generator

// Chain composes middleware so that Chain(a, b)(g) behaves as a(b(g)):
// a sees the request first and the reply last. Nil entries are skipped.
func Chain(middlewares ...Middleware) Middleware {
	return func(g Generator) Generator {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				g = middlewares[i](g)
			}
		}
		return g
	}
}

// DefaultMiddleware is the stack every served generator runs behind:
// panic recovery outermost, then request ID assignment, then per-request
// logging.
func DefaultMiddleware(logger *slog.Logger) []Middleware {
	return []Middleware{
		Recovery(),
		RequestID(),
		Logging(logger),
	}
}
