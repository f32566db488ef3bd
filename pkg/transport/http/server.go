package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/lorasampler/pkg/observability"
	"github.com/rhuss/lorasampler/pkg/transport"
)

// ReadinessFunc reports whether the backend can currently serve requests.
type ReadinessFunc func(ctx context.Context) error

// Server wraps an http.Server with the transport adapter, health probes and
// the metrics endpoint, and manages the full lifecycle including startup
// and graceful shutdown.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string // empty disables /metrics
	Readiness       ReadinessFunc
	Logger          *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8090",
		MaxBodySize:  10 << 20, // 10 MB
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		// Shutdown cancels in-flight generations, so this only bounds how
		// long their cancelled replies take to flush.
		ShutdownTimeout: 30 * time.Second,
		MetricsPath:     "/metrics",
		Logger:          slog.Default(),
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithTimeouts sets the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.config.ReadTimeout = read
		s.config.WriteTimeout = write
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithMetricsPath sets where Prometheus metrics are exposed. An empty path
// disables the endpoint.
func WithMetricsPath(path string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = path }
}

// WithReadiness sets the check behind GET /readyz. Without one, readiness
// always succeeds.
func WithReadiness(fn ReadinessFunc) ServerOption {
	return func(s *Server) { s.config.Readiness = fn }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// NewServer creates a new transport server for the given Generator.
// Default middleware (recovery, request ID, logging) is applied automatically.
func NewServer(generator transport.Generator, opts ...ServerOption) *Server {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.adapter = NewAdapter(generator, Config{MaxBodySize: s.config.MaxBodySize},
		transport.DefaultMiddleware(s.logger)...)

	mux := http.NewServeMux()
	mux.Handle("/", s.adapter.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.config.MetricsPath != "" {
		mux.Handle("GET "+s.config.MetricsPath, promhttp.Handler())
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      observability.MetricsMiddleware(mux),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	// A retrying generation can sleep longer than any shutdown deadline.
	s.httpServer.RegisterOnShutdown(s.cancelInFlight)

	return s
}

// Handler returns the fully assembled handler. Used for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.config.Readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.config.Readiness(ctx); err != nil {
			s.logger.Warn("readiness check failed", slog.String("error", err.Error()))
			http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}

func (s *Server) cancelInFlight() {
	if n := s.adapter.CancelInFlight(); n > 0 {
		s.logger.Info("cancelled in-flight requests", slog.Int("count", n))
	}
}

// Run starts the server and blocks until ctx is cancelled. It then
// gracefully shuts down: in-flight generations are cancelled and answer
// with an exhausted reply, and the server waits for those replies within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.ServeOn(ctx, ln)
}

// ServeOn serves on the given listener until ctx is cancelled.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context,
// cancelling in-flight generations.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
