package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"plus-monitoring/general-healthcheck/pkg/config"
	"plus-monitoring/general-healthcheck/pkg/history"
	"plus-monitoring/general-healthcheck/pkg/monitor"
	"plus-monitoring/general-healthcheck/pkg/server/middleware"
	"plus-monitoring/general-healthcheck/pkg/telemetry/health"
	"plus-monitoring/general-healthcheck/pkg/telemetry/logging"
	"plus-monitoring/general-healthcheck/pkg/telemetry/tracing"
)

// StatusProvider reports the latest state of every monitored service.
type StatusProvider interface {
	Status() []monitor.ServiceStatus
}

// Options wires the server to the rest of the exporter.
type Options struct {
	Config config.ServerConfig

	// Metrics serves the Prometheus exposition on / and /metrics.
	Metrics http.Handler

	// Health backs /health and /ready.
	Health *health.Checker

	Version health.VersionInfo

	// Status backs /api/v1/status. Optional.
	Status StatusProvider

	// History backs /api/v1/history. Optional.
	History history.Storage

	// HistoryLimit caps the limit query parameter of /api/v1/history.
	HistoryLimit int

	// Tracer creates a server span per request. Defaults to a noop tracer.
	Tracer *tracing.Tracer

	// Logger defaults to a JSON logger at info level.
	Logger *logging.Logger
}

// Server is the exporter's HTTP server.
type Server struct {
	opts       Options
	logger     *logging.Logger
	httpServer *http.Server

	mu        sync.RWMutex
	listener  net.Listener
	isRunning bool
}

// New creates a server. Nothing listens until Start.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger, _ = logging.New(logging.Config{})
	}
	if opts.Health == nil {
		opts.Health = health.New(0)
	}
	if opts.Metrics == nil {
		opts.Metrics = http.NotFoundHandler()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = config.DefaultHistoryQueryLimit
	}

	return &Server{
		opts:   opts,
		logger: opts.Logger.With("component", "server"),
	}
}

// Start listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.opts.Config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.Config.ReadTimeout.Std(),
		WriteTimeout: s.opts.Config.WriteTimeout.Std(),
		IdleTimeout:  s.opts.Config.IdleTimeout.Std(),
		ErrorLog:     slog.NewLogLogger(s.logger.Slog().Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	timeout := s.opts.Config.ShutdownTimeout.Std()
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout.Std()
	}
	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.isRunning = false
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus scrapes and kubelet probes are never rate limited.
	mux.Handle("/{$}", s.opts.Metrics)
	mux.Handle("/metrics", s.opts.Metrics)
	health.RegisterRoutes(mux, s.opts.Health, s.opts.Version)

	limiter := middleware.NewLimiter(s.opts.Config.RateLimit, s.opts.Config.RateLimitBurst)
	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/status", s.handleStatus)
	api.HandleFunc("GET /api/v1/history", s.handleHistory)
	api.HandleFunc("/api/", s.handleNotFound)
	mux.Handle("/api/", middleware.RateLimitMiddleware(limiter)(api))

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware,
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(s.logger),
		s.opts.Tracer.HTTPMiddleware,
	)
}
