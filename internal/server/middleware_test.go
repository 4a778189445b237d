package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (f *fakeRecorder) RecordRequest(method, route string, statusCode int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, recordedRequest{method, route, statusCode})
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := New(Config{}, nil)

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		assert.NotEmpty(t, id)
		w.Header().Set("X-Test-Request-ID", id)
	})

	w := httptest.NewRecorder()
	srv.requestIDMiddleware(nextHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	resp := w.Result()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, resp.Header.Get("X-Request-ID"), resp.Header.Get("X-Test-Request-ID"))
}

func TestRequestIDMiddleware_ExistingID(t *testing.T) {
	srv := New(Config{}, nil)

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "existing-id", GetRequestID(r.Context()))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "existing-id")
	w := httptest.NewRecorder()
	srv.requestIDMiddleware(nextHandler).ServeHTTP(w, req)

	assert.Equal(t, "existing-id", w.Result().Header.Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := New(Config{}, nil)

	handler := srv.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	srv := New(Config{}, nil)
	w := httptest.NewRecorder()
	srv.securityHeadersMiddleware(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"any origin when unconfigured", nil, "https://shop.example", "GET", "https://shop.example", http.StatusOK},
		{"listed origin", []string{"https://shop.example"}, "https://shop.example", "GET", "https://shop.example", http.StatusOK},
		{"unlisted origin", []string{"https://shop.example"}, "https://evil.example", "GET", "", http.StatusOK},
		{"wildcard", []string{"*"}, "https://a.example", "GET", "https://a.example", http.StatusOK},
		{"preflight", nil, "https://shop.example", "OPTIONS", "https://shop.example", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Config{EnableCORS: true, AllowedOrigins: tt.allowed}, nil)
			handler := srv.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestHandler_RecordsRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	srv := New(Config{}, nil, WithRequestRecorder(rec))
	srv.RegisterHTTPHandler("GET /items/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/items/42", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Len(t, rec.reqs, 2)
	assert.Equal(t, recordedRequest{"GET", "GET /items/{id}", http.StatusAccepted}, rec.reqs[0])
	assert.Equal(t, recordedRequest{"GET", "unmatched", http.StatusNotFound}, rec.reqs[1])
}

func TestHandler_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Requests = 1
	srv := New(cfg, nil)
	defer srv.Stop(t.Context())

	srv.RegisterHTTPHandler("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	disabled := New(Config{}, nil)
	w := httptest.NewRecorder()
	disabled.AuthRateLimit(ok).ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	cfg := DefaultConfig()
	cfg.RateLimit.AuthRequests = 1
	srv := New(cfg, nil)
	defer srv.Stop(t.Context())

	h := srv.AuthRateLimit(ok)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthRateLimit_IgnoresSpoofedForwardedFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.AuthRequests = 1
	srv := New(cfg, nil)
	defer srv.Stop(t.Context())

	h := srv.AuthRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	login := func(xff string) int {
		r := httptest.NewRequest("POST", "/auth/v1/login", nil)
		r.RemoteAddr = "203.0.113.9:5000"
		r.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, login("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("1.1.1.2"))
}

func TestAuthRateLimit_TrustedProxyKeysByClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.AuthRequests = 1
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	srv := New(cfg, nil)
	defer srv.Stop(t.Context())

	h := srv.AuthRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	login := func(xff string) int {
		r := httptest.NewRequest("POST", "/auth/v1/login", nil)
		r.RemoteAddr = "10.0.0.2:5000"
		r.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, login("1.1.1.1"))
	assert.Equal(t, http.StatusOK, login("1.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, login("1.1.1.1"))
}
