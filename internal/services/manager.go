// Package services wires the storefront components together and runs them.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/config"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/indexsync/pubsub"
	"github.com/storefrontbase/storefront/internal/indexsync/watcher"
	"github.com/storefrontbase/storefront/internal/metrics"
	"github.com/storefrontbase/storefront/internal/search"
	"github.com/storefrontbase/storefront/internal/server"
	"github.com/storefrontbase/storefront/internal/storage"
)

type Options struct {
	// RunHTTP serves the callables and REST routes.
	RunHTTP bool
	// RunSync tails the change stream and keeps the search index current.
	RunSync bool
}

// storeProvider owns the database connection behind both stores.
type storeProvider interface {
	Document() storage.DocumentStore
	User() storage.UserStore
	Close(ctx context.Context) error
}

type Manager struct {
	cfg  *config.Config
	opts Options

	provider     storeProvider
	searchClient search.Client
	metrics      *metrics.Registry

	authService *identity.AuthService
	catalog     *catalog.Service
	syncer      *indexsync.Syncer

	server   *server.Server
	watcher  *watcher.Watcher
	consumer *pubsub.Consumer
	natsConn *nats.Conn

	logger *slog.Logger
	wg     sync.WaitGroup
	errs   chan error
}

func NewManager(cfg *config.Config, opts Options) *Manager {
	return &Manager{
		cfg:    cfg,
		opts:   opts,
		logger: slog.Default().With("component", "services"),
		errs:   make(chan error, 3),
	}
}

// Err reports components that stopped on their own with an error. The
// process should shut down when it receives one.
func (m *Manager) Err() <-chan error {
	return m.errs
}

func (m *Manager) fail(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

func (m *Manager) AuthService() *identity.AuthService {
	return m.authService
}

func (m *Manager) Syncer() *indexsync.Syncer {
	return m.syncer
}

func (m *Manager) Server() *server.Server {
	return m.server
}

func (m *Manager) Metrics() *metrics.Registry {
	return m.metrics
}

// Reindex replays every document of collection into the search index.
func (m *Manager) Reindex(ctx context.Context, collection string) (indexsync.ReindexStats, error) {
	return indexsync.Reindex(ctx, m.provider.Document(), m.syncer, collection)
}
