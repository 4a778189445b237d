package pubsub

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/storefrontbase/storefront/internal/indexsync"
)

const maxSubjectLength = 1024

// Publisher enqueues changes. It satisfies watcher.Sink.
type Publisher struct {
	js      jetstream.JetStream
	stream  string
	metrics indexsync.Metrics
}

func NewPublisher(nc *nats.Conn, stream string, metrics indexsync.Metrics) (*Publisher, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	js, err := jetStreamNew(nc)
	if err != nil {
		return nil, err
	}

	p := NewPublisherFromJS(js, stream, metrics)
	if err := EnsureStream(context.Background(), js, p.stream); err != nil {
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}
	return p, nil
}

func NewPublisherFromJS(js jetstream.JetStream, stream string, metrics indexsync.Metrics) *Publisher {
	if stream == "" {
		stream = indexsync.DefaultStreamName
	}
	if metrics == nil {
		metrics = indexsync.NoopMetrics{}
	}
	return &Publisher{js: js, stream: stream, metrics: metrics}
}

// EnsureStream creates the stream if needed. Tasks are kept on disk so a
// restarted consumer picks up where it stopped.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{stream + ".>"},
		Storage:  jetstream.FileStorage,
	})
	return err
}

// Subject returns the subject a change is published on:
// <stream>.<collection>.<base64url(id)>, or <stream>.hashed.<digest> when
// that would exceed the subject length limit.
func Subject(stream, collection, docID string) string {
	subject := fmt.Sprintf("%s.%s.%s", stream, collection, base64.RawURLEncoding.EncodeToString([]byte(docID)))
	if len(subject) > maxSubjectLength {
		sum := sha256.Sum256([]byte(subject))
		subject = fmt.Sprintf("%s.hashed.%s", stream, hex.EncodeToString(sum[:16]))
	}
	return subject
}

func (p *Publisher) Submit(ctx context.Context, ch indexsync.Change) error {
	data, err := NewTask(ch).Marshal()
	if err != nil {
		p.metrics.IncPublish(ch.Collection, false)
		return fmt.Errorf("failed to encode task: %w", err)
	}

	subject := Subject(p.stream, ch.Collection, ch.DocumentID)
	_, err = p.js.Publish(ctx, subject, data, jetstream.WithExpectStream(p.stream), jetstream.WithRetryAttempts(3))
	if err != nil {
		p.metrics.IncPublish(ch.Collection, false)
		return err
	}

	p.metrics.IncPublish(ch.Collection, true)
	return nil
}
