// Package algolia implements search.Client on top of the Algolia API.
package algolia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	algoliasearch "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/storefrontbase/storefront/internal/search"
	"golang.org/x/time/rate"
)

// indexAPI is the slice of an Algolia index the client needs.
type indexAPI interface {
	SaveObject(ctx context.Context, record search.Record) (int64, error)
	DeleteObject(ctx context.Context, objectID string) (int64, error)
	TaskStatus(ctx context.Context, taskID int64) (string, error)
}

// Client is a search.Client backed by Algolia.
type Client struct {
	open         func(name string) indexAPI
	prefix       string
	limiter      *rate.Limiter
	pollInterval time.Duration
	waitTimeout  time.Duration
	logger       *slog.Logger
}

// New builds a client from cfg. Credentials are validated by the config.
func New(cfg search.Config) *Client {
	api := algoliasearch.NewClient(cfg.AppID, cfg.APIKey)
	return newClient(cfg, func(name string) indexAPI {
		return &algoliaIndex{index: api.InitIndex(name)}
	})
}

func newClient(cfg search.Config, open func(name string) indexAPI) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = search.DefaultConfig().PollInterval
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		open:         open,
		prefix:       cfg.IndexPrefix,
		limiter:      rate.NewLimiter(limit, 1),
		pollInterval: cfg.PollInterval,
		waitTimeout:  cfg.WaitTimeout,
		logger:       slog.Default().With("component", "algolia"),
	}
}

func (c *Client) indexName(index string) string {
	return c.prefix + index
}

func (c *Client) SaveObject(ctx context.Context, index string, record search.Record) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &search.Error{Op: "save", Index: index, Err: err}
	}
	taskID, err := c.open(c.indexName(index)).SaveObject(ctx, record)
	if err != nil {
		return 0, &search.Error{Op: "save", Index: index, Err: err}
	}
	return taskID, nil
}

func (c *Client) DeleteObject(ctx context.Context, index string, objectID string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, &search.Error{Op: "delete", Index: index, Err: err}
	}
	taskID, err := c.open(c.indexName(index)).DeleteObject(ctx, objectID)
	if err != nil {
		return 0, &search.Error{Op: "delete", Index: index, Err: err}
	}
	return taskID, nil
}

// WaitForTask polls the task status every pollInterval until it reports
// published.
func (c *Client) WaitForTask(ctx context.Context, index string, taskID int64) error {
	if c.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.waitTimeout)
		defer cancel()
	}

	idx := c.open(c.indexName(index))
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.waitError(index, taskID, err)
		}
		status, err := idx.TaskStatus(ctx, taskID)
		if err != nil {
			return &search.Error{Op: "wait", Index: index, Err: err}
		}
		if status == search.TaskPublished {
			c.logger.Debug("Task published", "index", index, "taskID", taskID, "polls", attempt)
			return nil
		}

		select {
		case <-ctx.Done():
			return c.waitError(index, taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) waitError(index string, taskID int64, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("task %d: %w", taskID, search.ErrTaskTimeout)
	}
	return &search.Error{Op: "wait", Index: index, Err: err}
}

// algoliaIndex adapts an Algolia index handle to indexAPI.
type algoliaIndex struct {
	index *algoliasearch.Index
}

func (a *algoliaIndex) SaveObject(ctx context.Context, record search.Record) (int64, error) {
	res, err := a.index.SaveObject(map[string]interface{}(record), ctx)
	if err != nil {
		return 0, err
	}
	return res.TaskID, nil
}

func (a *algoliaIndex) DeleteObject(ctx context.Context, objectID string) (int64, error) {
	res, err := a.index.DeleteObject(objectID, ctx)
	if err != nil {
		return 0, err
	}
	return res.TaskID, nil
}

func (a *algoliaIndex) TaskStatus(ctx context.Context, taskID int64) (string, error) {
	res, err := a.index.GetStatus(taskID, ctx)
	if err != nil {
		return "", err
	}
	return res.Status, nil
}
