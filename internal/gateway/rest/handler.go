// Package rest serves the storefront's HTTP surface: the callable
// endpoints, read-only catalog routes and token issuance.
package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/pkg/model"
)

// Accounts is the identity surface used by the handlers.
type Accounts interface {
	SignIn(ctx context.Context, req identity.LoginRequest) (*identity.TokenPair, error)
	Refresh(ctx context.Context, req identity.RefreshRequest) (*identity.TokenPair, error)
	CreateAdmin(ctx context.Context, caller *identity.Claims, req identity.AdminRequest) error
}

// Catalog is the product and category read surface.
type Catalog interface {
	ProductsByCategory(ctx context.Context, categoryID string) (*catalog.ProductList, error)
	Categories(ctx context.Context) (*catalog.CategoryList, error)
	Search(ctx context.Context, query string, max int) ([]catalog.Item, error)
}

// Default body size limits
const (
	DefaultMaxBodySize = 1 << 20 // 1MB
)

const (
	DefaultRequestTimeout = 30 * time.Second
)

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is written when the caller went away before
// the handler finished.
const StatusClientClosedRequest = 499

type Middleware func(http.Handler) http.Handler

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAuthenticator installs the middleware that attaches caller claims to
// callable requests.
func WithAuthenticator(mw Middleware) HandlerOption {
	return func(h *Handler) {
		h.authenticate = mw
	}
}

// WithAuthRateLimit installs the limiter applied to credential endpoints.
func WithAuthRateLimit(mw Middleware) HandlerOption {
	return func(h *Handler) {
		h.authRateLimit = mw
	}
}

// WithMetricsHandler exposes h at GET /metrics.
func WithMetricsHandler(metrics http.Handler) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

type Handler struct {
	accounts Accounts
	catalog  Catalog

	authenticate  Middleware
	authRateLimit Middleware
	metrics       http.Handler

	callables map[string]callableFunc
}

func NewHandler(accounts Accounts, cat Catalog, opts ...HandlerOption) *Handler {
	if accounts == nil {
		panic("accounts service cannot be nil")
	}
	if cat == nil {
		panic("catalog service cannot be nil")
	}

	h := &Handler{
		accounts:      accounts,
		catalog:       cat,
		authenticate:  passThrough,
		authRateLimit: passThrough,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.callables = map[string]callableFunc{
		"createadmin":             h.callCreateAdmin,
		"fetchProductsByCategory": h.callFetchProductsByCategory,
		"fetchCategories":         h.callFetchCategories,
		"searchProducts":          h.callSearchProducts,
	}
	return h
}

func passThrough(next http.Handler) http.Handler { return next }

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Callables
	mux.Handle("POST /callable/{name}", withTimeout(maxBodySize(h.authenticate(http.HandlerFunc(h.handleCallable)), DefaultMaxBodySize), DefaultRequestTimeout))

	// Catalog
	mux.Handle("GET /api/v1/categories", withTimeout(http.HandlerFunc(h.handleListCategories), DefaultRequestTimeout))
	mux.Handle("GET /api/v1/categories/{categoryId}/products", withTimeout(http.HandlerFunc(h.handleProductsByCategory), DefaultRequestTimeout))
	mux.Handle("GET /api/v1/products/search", withTimeout(http.HandlerFunc(h.handleSearch), DefaultRequestTimeout))

	// Auth
	mux.Handle("POST /auth/v1/login", h.authRateLimit(maxBodySize(http.HandlerFunc(h.handleLogin), DefaultMaxBodySize)))
	mux.Handle("POST /auth/v1/refresh", h.authRateLimit(maxBodySize(http.HandlerFunc(h.handleRefresh), DefaultMaxBodySize)))

	mux.HandleFunc("GET /health", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, APIError{Code: code, Message: message})
}

// writeInternalError reports err as a 500, or as 499 when the client
// cancelled the request.
func writeInternalError(w http.ResponseWriter, err error, message string) {
	if model.IsCanceled(err) {
		w.WriteHeader(StatusClientClosedRequest)
		return
	}
	slog.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
