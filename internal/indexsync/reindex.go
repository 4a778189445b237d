package indexsync

import (
	"context"
	"fmt"

	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

// DocumentQuerier lists the documents of a collection.
type DocumentQuerier interface {
	Query(ctx context.Context, q model.Query) ([]*storage.StoredDoc, error)
}

// ReindexStats counts the outcomes of a reindex run by state.
type ReindexStats map[State]int

// Total is the number of documents processed.
func (s ReindexStats) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Reindex replays every document of collection through the syncer as a
// write. It stops early only if ctx is done or the collection cannot be
// read.
func Reindex(ctx context.Context, docs DocumentQuerier, syncer *Syncer, collection string) (ReindexStats, error) {
	stored, err := docs.Query(ctx, model.Query{Collection: collection})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	stats := ReindexStats{}
	for _, doc := range stored {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data := model.Document(doc.Data)
		if data == nil {
			data = model.Document{}
		}
		out := syncer.Handle(ctx, Change{
			Collection: collection,
			DocumentID: doc.DocumentID(),
			After:      data,
		})
		stats[out.State]++
	}
	return stats, nil
}
