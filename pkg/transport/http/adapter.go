package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/rhuss/lorasampler/pkg/debug"
	"github.com/rhuss/lorasampler/pkg/transport"
)

// Adapter serves the generate API over HTTP.
// It routes requests to the Generator and serializes replies.
type Adapter struct {
	generator transport.Generator
	inflight  *transport.InFlightRegistry
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter for the given Generator.
// Middleware is applied to the Generator in the given order.
func NewAdapter(generator transport.Generator, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Apply middleware chain to the generator.
	if len(middlewares) > 0 {
		generator = transport.Chain(middlewares...)(generator)
	}

	a := &Adapter{
		generator: generator,
		inflight:  transport.NewInFlightRegistry(),
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("POST /v1/generate", a.handleGenerate)
	a.mux.HandleFunc("DELETE /v1/generate/{id}", a.handleCancel)

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware is HTTP-level middleware that establishes the
// request ID before dispatch. A client-supplied X-Request-ID is reused;
// otherwise a new one is generated. The ID is echoed in the response
// headers so that clients can cancel the request later.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = transport.NewRequestID()
		}
		r = r.WithContext(transport.ContextWithRequestID(r.Context(), id))
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// handleGenerate handles POST /v1/generate.
func (a *Adapter) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		transport.WriteErrorResponse(w,
			transport.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	// Decode request.
	var req transport.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				transport.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			transport.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if !a.inflight.Register(id, cancel) {
		transport.WriteAPIError(w,
			transport.NewConflictError("X-Request-ID", "request "+id+" is already in flight"),
		)
		return
	}
	defer a.inflight.Remove(id)
	debug.Log(debug.Server, "request in flight", "request_id", id, "in_flight", a.inflight.Len())

	resp, err := a.generator.Generate(ctx, &req)
	if err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) {
			transport.WriteAPIError(w, apiErr)
		} else {
			transport.WriteAPIError(w, transport.NewServerError(err.Error()))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CancelInFlight cancels every running generate request. Cancelled
// requests answer their callers with an exhausted reply.
func (a *Adapter) CancelInFlight() int {
	return a.inflight.CancelAll()
}

// isJSONContentType accepts an absent header or any application/json media
// type, parameters included.
func isJSONContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && mediaType == "application/json"
}

// handleCancel handles DELETE /v1/generate/{id}. The cancelled request
// answers its own caller with an exhausted reply.
func (a *Adapter) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if a.inflight.Cancel(id) {
		debug.Log(debug.Server, "request cancelled", "request_id", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	transport.WriteAPIError(w, transport.NewNotFoundError("request "+id+" is not in flight"))
}
