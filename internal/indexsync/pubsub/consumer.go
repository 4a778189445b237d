package pubsub

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/storefrontbase/storefront/internal/indexsync"
)

// DefaultChannelBufferSize is the default buffer size for worker channels.
const DefaultChannelBufferSize = 100

// Handler is implemented by *indexsync.Syncer.
type Handler interface {
	Handle(ctx context.Context, ch indexsync.Change) indexsync.Outcome
}

// Consumer pulls tasks from the stream and runs them through a Handler.
// Changes to the same document always land on the same worker, so they are
// applied in the order they were published.
type Consumer struct {
	js             jetstream.JetStream
	handler        Handler
	stream         string
	durable        string
	numWorkers     int
	channelBufSize int
	taskTimeout    time.Duration
	workerChans    []chan jetstream.Msg
	wg             sync.WaitGroup
	metrics        indexsync.Metrics
	logger         *slog.Logger

	closing         atomic.Bool
	inFlightCount   atomic.Int32
	drainTimeout    time.Duration
	shutdownTimeout time.Duration
}

type ConsumerOption func(*Consumer)

func WithChannelBufferSize(size int) ConsumerOption {
	return func(c *Consumer) {
		if size > 0 {
			c.channelBufSize = size
		}
	}
}

func WithMetrics(m indexsync.Metrics) ConsumerOption {
	return func(c *Consumer) {
		if m != nil {
			c.metrics = m
		}
	}
}

func NewConsumer(nc *nats.Conn, h Handler, cfg indexsync.Config, opts ...ConsumerOption) (*Consumer, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	js, err := jetStreamNew(nc)
	if err != nil {
		return nil, err
	}
	return NewConsumerFromJS(js, h, cfg, opts...), nil
}

// NewConsumerFromJS builds a consumer on an existing JetStream context.
// Zero values in cfg fall back to the package defaults.
func NewConsumerFromJS(js jetstream.JetStream, h Handler, cfg indexsync.Config, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		js:              js,
		handler:         h,
		stream:          cfg.StreamName,
		durable:         cfg.ConsumerName,
		numWorkers:      cfg.WorkerCount,
		channelBufSize:  DefaultChannelBufferSize,
		taskTimeout:     cfg.TaskTimeout,
		metrics:         indexsync.NoopMetrics{},
		logger:          slog.Default().With("component", "sync-consumer"),
		drainTimeout:    cfg.DrainTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if c.stream == "" {
		c.stream = indexsync.DefaultStreamName
	}
	if c.durable == "" {
		c.durable = indexsync.DefaultConsumerName
	}
	if c.numWorkers <= 0 {
		c.numWorkers = 8
	}
	if c.taskTimeout <= 0 {
		c.taskTimeout = indexsync.DefaultTaskTimeout
	}
	if c.drainTimeout <= 0 {
		c.drainTimeout = indexsync.DefaultDrainTimeout
	}
	if c.shutdownTimeout <= 0 {
		c.shutdownTimeout = indexsync.DefaultShutdownTimeout
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx is cancelled, then shuts down in phases: stop
// fetching, let in-flight dispatches finish, close the worker channels and
// wait for the workers.
func (c *Consumer) Start(ctx context.Context) error {
	if err := EnsureStream(ctx, c.js, c.stream); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.stream, jetstream.ConsumerConfig{
		Durable:       c.durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: c.stream + ".>",
		AckWait:       c.taskTimeout + 30*time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	// Workers outlive ctx so queued tasks finish during shutdown; each task
	// is still bounded by the task timeout.
	workerCtx := context.WithoutCancel(ctx)
	c.workerChans = make([]chan jetstream.Msg, c.numWorkers)
	for i := 0; i < c.numWorkers; i++ {
		c.workerChans[i] = make(chan jetstream.Msg, c.channelBufSize)
		c.wg.Add(1)
		go c.workerLoop(workerCtx, i)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		c.dispatch(msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	defer cc.Stop()

	c.logger.Info("Sync consumer started", "workers", c.numWorkers, "stream", c.stream)

	<-ctx.Done()

	c.logger.Info("Stopping sync consumer")
	c.closing.Store(true)
	cc.Stop()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), c.drainTimeout)
	defer drainCancel()
	c.waitForDrain(drainCtx)

	for _, ch := range c.workerChans {
		close(ch)
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-done:
		c.logger.Info("All sync workers stopped")
	case <-shutdownCtx.Done():
		c.logger.Warn("Shutdown timeout exceeded, some sync workers may still be running")
	}
	return nil
}

func (c *Consumer) waitForDrain(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.inFlightCount.Load() == 0 {
			return
		}
		select {
		case <-ctx.Done():
			c.logger.Warn("Drain timeout", "in_flight", c.inFlightCount.Load())
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) dispatch(msg jetstream.Msg) {
	c.inFlightCount.Add(1)
	defer c.inFlightCount.Add(-1)

	if c.closing.Load() {
		_ = msg.Nak()
		return
	}

	task, err := UnmarshalTask(msg.Data())
	if err != nil {
		c.logger.Error("Invalid task payload", "error", err)
		c.metrics.IncConsume("unknown", false)
		_ = msg.Term()
		return
	}

	c.workerChans[c.shard(task.Collection, task.DocumentID)] <- msg
}

func (c *Consumer) shard(collection, docID string) int {
	h := fnv.New32a()
	h.Write([]byte(collection))
	h.Write([]byte(docID))
	return int(h.Sum32() % uint32(c.numWorkers))
}

func (c *Consumer) workerLoop(ctx context.Context, id int) {
	defer c.wg.Done()

	for msg := range c.workerChans[id] {
		if err := c.processMsg(ctx, msg); err != nil {
			c.logger.Error("Dropping task", "worker", id, "error", err)
			_ = msg.Term()
			continue
		}
		// Sync failures are terminal for the change; they are logged by
		// the handler and not redelivered.
		_ = msg.Ack()
	}
}

func (c *Consumer) processMsg(ctx context.Context, msg jetstream.Msg) error {
	task, err := UnmarshalTask(msg.Data())
	if err != nil {
		c.metrics.IncConsume("unknown", false)
		return fmt.Errorf("invalid payload: %w", err)
	}

	taskCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	out := c.handler.Handle(taskCtx, task.Change())
	c.metrics.IncConsume(task.Collection, out.State != indexsync.StateFailed)
	return nil
}
