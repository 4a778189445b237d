package services

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/gateway"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/indexsync/pubsub"
	"github.com/storefrontbase/storefront/internal/indexsync/watcher"
	"github.com/storefrontbase/storefront/internal/metrics"
	"github.com/storefrontbase/storefront/internal/search"
	"github.com/storefrontbase/storefront/internal/search/algolia"
	"github.com/storefrontbase/storefront/internal/search/memory"
	"github.com/storefrontbase/storefront/internal/server"
	storagecfg "github.com/storefrontbase/storefront/internal/storage/config"
	"github.com/storefrontbase/storefront/internal/storage/mongo"
)

var (
	newStoreProvider = func(ctx context.Context, cfg storagecfg.Config) (storeProvider, error) {
		p, err := mongo.NewProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	connectNATS = func(url string) (*nats.Conn, error) {
		return nats.Connect(url, nats.Name("storefront-sync"))
	}
)

// Init builds every component once. Handlers receive their dependencies
// from here; nothing is created lazily.
func (m *Manager) Init(ctx context.Context) error {
	provider, err := newStoreProvider(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	m.provider = provider
	m.metrics = metrics.New()

	m.searchClient, err = newSearchClient(m.cfg.Search)
	if err != nil {
		return err
	}

	m.syncer, err = indexsync.NewSyncer(m.cfg.Sync, provider.Document(), m.searchClient, indexsync.WithMetrics(m.metrics))
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	tokens, err := identity.NewTokenService(m.cfg.Identity)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}
	m.authService = identity.NewAuthService(m.cfg.Identity, provider.User(), provider.Document(), tokens)
	m.catalog = catalog.New(provider.Document(), m.cfg.Catalog)

	if m.opts.RunHTTP {
		m.initHTTP(tokens)
	}
	if m.opts.RunSync {
		if err := m.initSync(); err != nil {
			return err
		}
	}
	return nil
}

func newSearchClient(cfg search.Config) (search.Client, error) {
	switch cfg.Provider {
	case search.ProviderAlgolia:
		return algolia.New(cfg), nil
	case search.ProviderMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

func (m *Manager) initHTTP(tokens *identity.TokenService) {
	m.server = server.New(m.cfg.Server, m.logger, server.WithRequestRecorder(m.metrics))

	api := gateway.NewServer(m.authService, m.catalog,
		gateway.WithAuthenticator(tokens.MiddlewareOptional),
		gateway.WithAuthRateLimit(m.server.AuthRateLimit),
		gateway.WithMetrics(m.metrics.Handler()),
	)
	api.RegisterRoutes(m.server.HTTPMux())
}

// initSync wires the watcher to the syncer, through JetStream when a NATS
// URL is configured and in-process otherwise.
func (m *Manager) initSync() error {
	sink := watcher.HandlerSink(m.syncer, m.cfg.Sync.TaskTimeout)

	if url := m.cfg.Sync.NatsURL; url != "" {
		nc, err := connectNATS(url)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		m.natsConn = nc

		publisher, err := pubsub.NewPublisher(nc, m.cfg.Sync.StreamName, m.metrics)
		if err != nil {
			return fmt.Errorf("failed to create sync publisher: %w", err)
		}
		m.consumer, err = pubsub.NewConsumer(nc, m.syncer, m.cfg.Sync, pubsub.WithMetrics(m.metrics))
		if err != nil {
			return fmt.Errorf("failed to create sync consumer: %w", err)
		}
		sink = publisher
	}

	m.watcher = watcher.New(m.provider.Document(), m.syncer.Collections(), sink, watcher.Options{
		CheckpointKey:       m.cfg.Sync.CheckpointKey,
		StartFromNow:        m.cfg.Sync.StartFromNow,
		ReconnectBackoff:    m.cfg.Sync.ReconnectBackoff,
		MaxReconnectBackoff: m.cfg.Sync.MaxReconnectBackoff,
		MaxReconnects:       m.cfg.Sync.MaxReconnects,
	})
	return nil
}
