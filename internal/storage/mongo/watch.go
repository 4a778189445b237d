package mongo

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/storefrontbase/storefront/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeEvent is the subset of a change stream document we consume.
type changeEvent struct {
	ID                       bson.Raw           `bson:"_id"`
	OperationType            string             `bson:"operationType"`
	FullDocument             *storage.StoredDoc `bson:"fullDocument"`
	FullDocumentBeforeChange *storage.StoredDoc `bson:"fullDocumentBeforeChange"`
	DocumentKey              struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// collectionPattern matches document keys belonging to any of collections.
func collectionPattern(collections []string) string {
	quoted := make([]string, len(collections))
	for i, c := range collections {
		quoted[i] = regexp.QuoteMeta(c)
	}
	return "^(" + strings.Join(quoted, "|") + ")/[^/]+$"
}

func watchPipeline(collections []string) mongo.Pipeline {
	match := bson.D{
		{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}}}},
	}
	if len(collections) > 0 {
		// documentKey is present for every operation type, deletes included.
		match = append(match, bson.E{
			Key:   "documentKey._id",
			Value: bson.D{{Key: "$regex", Value: collectionPattern(collections)}},
		})
	}
	return mongo.Pipeline{bson.D{{Key: "$match", Value: match}}}
}

// toEvent converts a raw change to a storage event. ok is false for
// operation types that do not describe a document write.
func toEvent(ce changeEvent) (storage.Event, bool) {
	evt := storage.Event{
		Id:          ce.DocumentKey.ID,
		ResumeToken: ce.ID,
		Timestamp:   time.Now().UnixMilli(),
		Before:      ce.FullDocumentBeforeChange,
	}

	switch ce.OperationType {
	case "insert":
		evt.Type = storage.EventCreate
		evt.Document = ce.FullDocument
	case "update", "replace":
		evt.Type = storage.EventUpdate
		evt.Document = ce.FullDocument
		if ce.FullDocument == nil {
			// The document was removed before updateLookup ran; a delete
			// event for it follows on the stream.
			return evt, false
		}
	case "delete":
		evt.Type = storage.EventDelete
	default:
		return evt, false
	}
	return evt, true
}

func (m *documentStore) Watch(ctx context.Context, collections []string, resumeToken interface{}, opts storage.WatchOptions) (<-chan storage.Event, error) {
	changeStreamOpts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if opts.IncludeBefore {
		changeStreamOpts.SetFullDocumentBeforeChange(options.WhenAvailable)
	}
	if resumeToken != nil {
		changeStreamOpts.SetResumeAfter(resumeToken)
	}

	stream, err := m.getCollection("").Watch(ctx, watchPipeline(collections), changeStreamOpts)
	if err != nil {
		return nil, err
	}

	out := make(chan storage.Event)

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ce changeEvent
			if err := stream.Decode(&ce); err != nil {
				slog.Warn("Failed to decode change event", "error", err)
				continue
			}

			evt, ok := toEvent(ce)
			if !ok {
				continue
			}

			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Error("Change stream terminated", "error", err)
		}
	}()

	return out, nil
}
