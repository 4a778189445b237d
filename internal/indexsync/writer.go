package indexsync

import (
	"context"

	"github.com/storefrontbase/storefront/internal/search"
	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

// writer submits records to the index and waits for confirmation.
type writer struct {
	client search.Client
}

// buildRecord converts normalized fields into a search record keyed by
// objectID. Stored values are converted to plain JSON types; a field named
// objectID in the source never overrides the key.
func buildRecord(objectID string, fields model.Document) search.Record {
	record := search.Record(storage.PlainMap(fields))
	if record == nil {
		record = search.Record{}
	}
	record["objectID"] = objectID
	return record
}

// save upserts record and returns the task id.
func (w *writer) save(ctx context.Context, index string, record search.Record) (int64, error) {
	return w.client.SaveObject(ctx, index, record)
}

// remove deletes objectID and returns the task id.
func (w *writer) remove(ctx context.Context, index, objectID string) (int64, error) {
	return w.client.DeleteObject(ctx, index, objectID)
}

// confirm blocks until taskID is applied.
func (w *writer) confirm(ctx context.Context, index string, taskID int64) error {
	return w.client.WaitForTask(ctx, index, taskID)
}
