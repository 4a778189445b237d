// Package search defines the index client used to mirror documents into
// the external search service.
package search

import (
	"context"
	"errors"
	"fmt"
)

// TaskPublished is the status reported once a write is applied.
const TaskPublished = "published"

var (
	// ErrTaskTimeout is returned when a task is still pending after the
	// configured wait timeout.
	ErrTaskTimeout = errors.New("search task not published before timeout")
	// ErrUnknownTask is returned by WaitForTask for a task the index never issued.
	ErrUnknownTask = errors.New("unknown search task")
)

// Record is the body of a search record. It always carries "objectID".
type Record map[string]interface{}

// ObjectID returns the record key, if set.
func (r Record) ObjectID() string {
	id, _ := r["objectID"].(string)
	return id
}

// Client writes records to named indices. Writes are asynchronous on the
// service side: each returns a task id that WaitForTask blocks on.
type Client interface {
	// SaveObject upserts record, replacing any existing record with the
	// same objectID.
	SaveObject(ctx context.Context, index string, record Record) (int64, error)

	// DeleteObject removes the record with objectID.
	DeleteObject(ctx context.Context, index string, objectID string) (int64, error)

	// WaitForTask blocks until taskID is published, ctx is done, or the
	// client's wait timeout elapses.
	WaitForTask(ctx context.Context, index string, taskID int64) error
}

// Error wraps a failed call to the search service.
type Error struct {
	Op    string
	Index string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search %s on %s: %v", e.Op, e.Index, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
