package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/stretchr/testify/mock"
)

type MockJetStream struct {
	mock.Mock
	jetstream.JetStream
}

func (m *MockJetStream) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.PubAck), args.Error(1)
}

func (m *MockJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *MockJetStream) CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	args := m.Called(ctx, stream, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Consumer), args.Error(1)
}

type MockStream struct {
	mock.Mock
	jetstream.Stream
}

type MockConsumer struct {
	mock.Mock
	jetstream.Consumer
}

func (m *MockConsumer) Consume(handler jetstream.MessageHandler, opts ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	args := m.Called(handler)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.ConsumeContext), args.Error(1)
}

type MockConsumeContext struct {
	mock.Mock
	jetstream.ConsumeContext
}

func (m *MockConsumeContext) Stop() {
	m.Called()
}

type MockMsg struct {
	mock.Mock
	jetstream.Msg
}

func (m *MockMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Handle(ctx context.Context, ch indexsync.Change) indexsync.Outcome {
	args := m.Called(ctx, ch)
	return args.Get(0).(indexsync.Outcome)
}

type recordingMetrics struct {
	indexsync.NoopMetrics
	mu       sync.Mutex
	publish  map[bool]int
	consume  map[bool]int
	lastColl string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{publish: map[bool]int{}, consume: map[bool]int{}}
}

func (r *recordingMetrics) IncPublish(collection string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publish[ok]++
	r.lastColl = collection
}

func (r *recordingMetrics) IncConsume(collection string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consume[ok]++
	r.lastColl = collection
}

func (r *recordingMetrics) ObserveSync(string, string, time.Duration) {}
