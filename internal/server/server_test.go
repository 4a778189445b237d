package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.HTTPPort = freePort(t)
	cfg.ApplyDefaults()

	srv := New(cfg, nil)
	srv.RegisterHTTPHandler("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	url := "http://127.0.0.1:" + itoa(cfg.HTTPPort) + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	assert.Error(t, srv.Start(ctx), "second start must fail")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, srv.Stop(stopCtx))

	cancel()
	assert.NoError(t, <-done)
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := New(DefaultConfig(), nil)
	assert.NoError(t, srv.Stop(context.Background()))
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestServer_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.HTTPPort = l.Addr().(*net.TCPAddr).Port
	srv := New(cfg, nil)
	defer srv.Stop(context.Background())

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server error")
}

func TestServer_HTTPMux(t *testing.T) {
	srv := New(Config{}, nil)
	assert.NotNil(t, srv.HTTPMux())
}
