// Package pubsub queues changes on NATS JetStream so that watching the
// change stream and writing to the search index can run in separate
// processes.
package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
)

// jetStreamNew is a variable to allow mocking jetstream.New in tests.
var jetStreamNew = func(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Task is the queued form of an indexsync.Change. It is BSON encoded so
// that values read from the document store survive the round trip.
type Task struct {
	Collection string         `bson:"collection"`
	DocumentID string         `bson:"documentId"`
	Before     model.Document `bson:"before,omitempty"`
	After      model.Document `bson:"after,omitempty"`
	Deleted    bool           `bson:"deleted"`
	EnqueuedAt time.Time      `bson:"enqueuedAt"`
}

func NewTask(ch indexsync.Change) *Task {
	return &Task{
		Collection: ch.Collection,
		DocumentID: ch.DocumentID,
		Before:     ch.Before,
		After:      ch.After,
		Deleted:    ch.IsDelete(),
		EnqueuedAt: time.Now().UTC(),
	}
}

// Change converts the task back. An empty document written by the source
// is encoded without an after field, so a non-deleted task always gets a
// non-nil After.
func (t *Task) Change() indexsync.Change {
	ch := indexsync.Change{
		Collection: t.Collection,
		DocumentID: t.DocumentID,
		Before:     t.Before,
	}
	if !t.Deleted {
		ch.After = t.After
		if ch.After == nil {
			ch.After = model.Document{}
		}
	}
	return ch
}

func (t *Task) Marshal() ([]byte, error) {
	return bson.Marshal(t)
}

// taskFields decodes documents through bson.D so nested mappings keep the
// order they were published in.
type taskFields struct {
	Collection string    `bson:"collection"`
	DocumentID string    `bson:"documentId"`
	Before     bson.D    `bson:"before,omitempty"`
	After      bson.D    `bson:"after,omitempty"`
	Deleted    bool      `bson:"deleted"`
	EnqueuedAt time.Time `bson:"enqueuedAt"`
}

func (t *Task) UnmarshalBSON(data []byte) error {
	var f taskFields
	if err := bson.Unmarshal(data, &f); err != nil {
		return err
	}
	*t = Task{
		Collection: f.Collection,
		DocumentID: f.DocumentID,
		Before:     storage.FieldsOf(f.Before),
		After:      storage.FieldsOf(f.After),
		Deleted:    f.Deleted,
		EnqueuedAt: f.EnqueuedAt,
	}
	return nil
}

func UnmarshalTask(data []byte) (*Task, error) {
	var t Task
	if err := bson.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.Collection == "" || t.DocumentID == "" {
		return nil, fmt.Errorf("task is missing collection or document id")
	}
	return &t, nil
}
