package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/storefrontbase/storefront/internal/server/ratelimit"
)

// RequestRecorder receives one observation per served HTTP request.
type RequestRecorder interface {
	RecordRequest(method, route string, statusCode int, duration time.Duration)
}

// Option configures a Server.
type Option func(*Server)

// WithRequestRecorder reports every request to rec, labelled by the mux
// pattern that served it.
func WithRequestRecorder(rec RequestRecorder) Option {
	return func(s *Server) {
		s.recorder = rec
	}
}

// Server owns the HTTP listener, its middleware chain and the rate limiters.
type Server struct {
	cfg    Config
	logger *slog.Logger

	httpMux    *http.ServeMux
	httpServer *http.Server
	recorder   RequestRecorder

	rateLimiter     *ratelimit.MemoryLimiter
	authRateLimiter *ratelimit.MemoryLimiter
	ips             *ratelimit.IPResolver

	mu      sync.Mutex
	started bool
}

func New(cfg Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger.With("component", "server"),
		httpMux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ips, err := ratelimit.NewIPResolver(cfg.TrustedProxies)
	if err != nil {
		// Validate rejects this; without trusted proxies every client is
		// keyed by its peer address.
		s.logger.Warn("Ignoring trusted proxies", "error", err)
	}
	s.ips = ips

	if cfg.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		s.authRateLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
	}

	return s
}

// Start serves HTTP until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.initHTTPServer()
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go s.runHTTPServer(errChan)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.httpServer != nil {
		s.logger.Info("Stopping HTTP server")
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown error: %w", err))
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.authRateLimiter != nil {
		s.authRateLimiter.Stop()
	}

	return errors.Join(errs...)
}

func (s *Server) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.httpMux.Handle(pattern, handler)
}

func (s *Server) HTTPMux() *http.ServeMux {
	return s.httpMux
}

// Handler returns the mux wrapped in the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.wrapMiddleware(s.httpMux)
}

// AuthRateLimit wraps h with the stricter limiter reserved for credential
// endpoints. It is a no-op when rate limiting is disabled.
func (s *Server) AuthRateLimit(h http.Handler) http.Handler {
	if s.authRateLimiter == nil {
		return h
	}
	return ratelimit.Middleware(s.authRateLimiter, s.cfg.RateLimit.AuthWindow, s.ips)(h)
}
