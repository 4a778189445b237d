// Package memory is an in-process search.Client. Every write is applied
// immediately and its task is published at once.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/storefrontbase/storefront/internal/search"
)

type Client struct {
	mu      sync.RWMutex
	indices map[string]map[string]search.Record
	tasks   map[int64]string // task id -> index
	nextID  int64
}

func New() *Client {
	return &Client{
		indices: make(map[string]map[string]search.Record),
		tasks:   make(map[int64]string),
	}
}

func (c *Client) SaveObject(ctx context.Context, index string, record search.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := record.ObjectID()
	if id == "" {
		return 0, &search.Error{Op: "save", Index: index, Err: fmt.Errorf("record has no objectID")}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.indices[index]
	if !ok {
		idx = make(map[string]search.Record)
		c.indices[index] = idx
	}
	stored := make(search.Record, len(record))
	for k, v := range record {
		stored[k] = v
	}
	idx[id] = stored
	return c.newTask(index), nil
}

func (c *Client) DeleteObject(ctx context.Context, index string, objectID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.indices[index], objectID)
	return c.newTask(index), nil
}

func (c *Client) WaitForTask(ctx context.Context, index string, taskID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tasks[taskID] != index {
		return &search.Error{Op: "wait", Index: index, Err: search.ErrUnknownTask}
	}
	return nil
}

// Get returns a copy of the record stored under objectID.
func (c *Client) Get(index, objectID string) (search.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.indices[index][objectID]
	if !ok {
		return nil, false
	}
	out := make(search.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out, true
}

// Len returns the number of records in index.
func (c *Client) Len(index string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.indices[index])
}

func (c *Client) newTask(index string) int64 {
	c.nextID++
	c.tasks[c.nextID] = index
	return c.nextID
}
