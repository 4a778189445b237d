package gateway

import (
	"net/http"

	"github.com/storefrontbase/storefront/internal/gateway/rest"
)

// Server is a route registrar for the API layer.
type Server struct {
	rest *rest.Handler
}

// ServerOption is a function that configures a Server.
type ServerOption = rest.HandlerOption

// WithAuthenticator attaches caller claims to callable requests.
func WithAuthenticator(mw func(http.Handler) http.Handler) ServerOption {
	return rest.WithAuthenticator(mw)
}

// WithAuthRateLimit applies mw to the credential endpoints.
func WithAuthRateLimit(mw func(http.Handler) http.Handler) ServerOption {
	return rest.WithAuthRateLimit(mw)
}

// WithMetrics exposes the Prometheus handler.
func WithMetrics(h http.Handler) ServerOption {
	return rest.WithMetricsHandler(h)
}

// NewServer creates a new API Server (route registrar).
func NewServer(accounts rest.Accounts, catalog rest.Catalog, opts ...ServerOption) *Server {
	return &Server{rest: rest.NewHandler(accounts, catalog, opts...)}
}

// RegisterRoutes registers all API routes to the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.rest.RegisterRoutes(mux)
}
