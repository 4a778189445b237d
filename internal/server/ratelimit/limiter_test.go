package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"), "keys are independent")

	l.Reset("a")
	assert.True(t, l.Allow("a"))
}

func TestMemoryLimiter_EvictIdle(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Stop()

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.size())

	l.evictIdle(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, l.size())
}

func TestMemoryLimiter_StopTwice(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestNewIPResolver(t *testing.T) {
	_, err := NewIPResolver([]string{"10.0.0.0/8", "192.168.1.1", "::1"})
	assert.NoError(t, err)

	_, err = NewIPResolver([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestIPResolver_ClientIP(t *testing.T) {
	trusted, err := NewIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolver *IPResolver
		header   map[string]string
		remote   string
		want     string
	}{
		{"untrusted peer ignores forwarded", trusted, map[string]string{"X-Forwarded-For": "1.1.1.1"}, "3.3.3.3:1", "3.3.3.3"},
		{"untrusted peer ignores real ip", trusted, map[string]string{"X-Real-IP": "2.2.2.2"}, "3.3.3.3:1", "3.3.3.3"},
		{"no proxies configured", nil, map[string]string{"X-Forwarded-For": "1.1.1.1"}, "10.0.0.2:1", "10.0.0.2"},
		{"trusted peer", trusted, map[string]string{"X-Forwarded-For": "1.1.1.1"}, "10.0.0.2:1", "1.1.1.1"},
		{"spoofed left entries skipped", trusted, map[string]string{"X-Forwarded-For": "9.9.9.9, 1.1.1.1, 10.0.0.5"}, "10.0.0.2:1", "1.1.1.1"},
		{"all hops trusted", trusted, map[string]string{"X-Forwarded-For": "10.0.0.7, 10.0.0.5"}, "10.0.0.2:1", "10.0.0.7"},
		{"trusted peer real ip", trusted, map[string]string{"X-Real-IP": " 2.2.2.2 "}, "10.0.0.2:1", "2.2.2.2"},
		{"trusted peer without headers", trusted, nil, "10.0.0.2:1", "10.0.0.2"},
		{"remote without port", nil, nil, "3.3.3.3", "3.3.3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.ClientIP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Stop()
	h := Middleware(l, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestMiddleware_RotatingForwardedHeaderStillLimited(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Stop()
	h := Middleware(l, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for _, ip := range []string{"1.1.1.1", "1.1.1.2", "1.1.1.3"} {
		r := httptest.NewRequest(http.MethodPost, "/auth/v1/login", nil)
		r.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
