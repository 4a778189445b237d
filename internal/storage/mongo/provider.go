package mongo

import (
	"context"
	"fmt"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/internal/storage/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Provider owns the Mongo client and the stores built on it.
type Provider struct {
	client *mongo.Client
	docs   *documentStore
	users  storage.UserStore
}

// NewProvider connects to MongoDB, verifies the connection and prepares
// indexes for both stores.
func NewProvider(ctx context.Context, cfg config.Config) (*Provider, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.Mongo.URI)
	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Mongo.DatabaseName)

	docs := &documentStore{
		client:         client,
		db:             db,
		dataCollection: cfg.Document.DataCollection,
		sysCollection:  cfg.Document.SysCollection,
	}
	if err := docs.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create document indexes: %w", err)
	}

	users := NewUserStore(db, cfg.User.Collection)
	if err := users.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create user indexes: %w", err)
	}

	return &Provider{client: client, docs: docs, users: users}, nil
}

func (p *Provider) Document() storage.DocumentStore {
	return p.docs
}

func (p *Provider) User() storage.UserStore {
	return p.users
}

func (p *Provider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
