// Package watcher tails the document change stream and forwards every
// write to a watched collection as an indexsync.Change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/storage"
	"github.com/storefrontbase/storefront/pkg/model"
)

// Store is the part of the document store the watcher uses.
type Store interface {
	Get(ctx context.Context, path string) (*storage.StoredDoc, error)
	Set(ctx context.Context, path string, data map[string]interface{}) error
	Watch(ctx context.Context, collections []string, resumeToken interface{}, opts storage.WatchOptions) (<-chan storage.Event, error)
}

// Sink receives changes in stream order.
type Sink interface {
	Submit(ctx context.Context, ch indexsync.Change) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ch indexsync.Change) error

func (f SinkFunc) Submit(ctx context.Context, ch indexsync.Change) error {
	return f(ctx, ch)
}

// Handler is implemented by *indexsync.Syncer.
type Handler interface {
	Handle(ctx context.Context, ch indexsync.Change) indexsync.Outcome
}

// HandlerSink runs each change through h in the calling goroutine, bounded
// by timeout. Sync failures are already logged by the handler, so the sink
// never fails.
func HandlerSink(h Handler, timeout time.Duration) Sink {
	return SinkFunc(func(ctx context.Context, ch indexsync.Change) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		h.Handle(ctx, ch)
		return nil
	})
}

// Options configures the watcher.
type Options struct {
	CheckpointKey string
	StartFromNow  bool

	// A closed stream is reopened after ReconnectBackoff, doubling up to
	// MaxReconnectBackoff. MaxReconnects bounds consecutive failed reopens;
	// zero means no bound.
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
	MaxReconnects       int
}

var ErrStreamClosed = errors.New("change stream closed")

type Watcher struct {
	store       Store
	collections []string
	sink        Sink
	opts        Options
	logger      *slog.Logger
}

func New(store Store, collections []string, sink Sink, opts Options) *Watcher {
	if opts.CheckpointKey == "" {
		opts.CheckpointKey = indexsync.DefaultCheckpointKey
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = indexsync.DefaultReconnectBackoff
	}
	if opts.MaxReconnectBackoff < opts.ReconnectBackoff {
		opts.MaxReconnectBackoff = opts.ReconnectBackoff
	}
	return &Watcher{
		store:       store,
		collections: collections,
		sink:        sink,
		opts:        opts,
		logger:      slog.Default().With("component", "watcher"),
	}
}

// Run watches until ctx is done. Each change is checkpointed after the sink
// accepts it, so a restart resumes after the last forwarded change. A sink
// error stops the watcher without advancing the checkpoint.
//
// When the stream closes under it, Run reopens it from the checkpoint with
// backoff. It returns an error wrapping ErrStreamClosed once MaxReconnects
// consecutive reopens have failed to deliver anything.
func (w *Watcher) Run(ctx context.Context) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("Watching collections", "collections", w.collections)

	failures := 0
	for {
		forwarded, err := w.consume(ctx, events)
		if ctx.Err() != nil {
			return nil
		}
		if !errors.Is(err, ErrStreamClosed) {
			return err
		}
		if forwarded > 0 {
			failures = 0
		}

		events, failures, err = w.reopen(ctx, failures)
		if err != nil {
			return err
		}
		if events == nil {
			return nil
		}
	}
}

// consume forwards events until the channel closes or ctx is done.
func (w *Watcher) consume(ctx context.Context, events <-chan storage.Event) (int, error) {
	forwarded := 0
	for {
		select {
		case <-ctx.Done():
			return forwarded, nil
		case evt, ok := <-events:
			if !ok {
				return forwarded, ErrStreamClosed
			}
			if err := w.forward(ctx, evt); err != nil {
				return forwarded, err
			}
			forwarded++
		}
	}
}

// reopen waits and reopens the stream until it succeeds, ctx is done (nil
// channel, nil error) or the reconnect budget is spent.
func (w *Watcher) reopen(ctx context.Context, failures int) (<-chan storage.Event, int, error) {
	for {
		failures++
		if w.opts.MaxReconnects > 0 && failures > w.opts.MaxReconnects {
			return nil, failures, fmt.Errorf("%w: gave up after %d reconnect attempts", ErrStreamClosed, w.opts.MaxReconnects)
		}

		delay := w.backoff(failures)
		w.logger.Warn("Change stream closed, reconnecting", "attempt", failures, "backoff", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, failures, nil
		case <-timer.C:
		}

		events, err := w.Watch(ctx)
		if err == nil {
			w.logger.Info("Change stream reopened", "attempt", failures)
			return events, failures, nil
		}
		if ctx.Err() != nil {
			return nil, failures, nil
		}
		w.logger.Error("Failed to reopen change stream", "attempt", failures, "error", err)
	}
}

// backoff doubles the base delay per attempt, capped at the maximum.
func (w *Watcher) backoff(attempt int) time.Duration {
	d := w.opts.ReconnectBackoff
	for i := 1; i < attempt && d < w.opts.MaxReconnectBackoff; i++ {
		d *= 2
	}
	if d > w.opts.MaxReconnectBackoff {
		d = w.opts.MaxReconnectBackoff
	}
	return d
}

func (w *Watcher) forward(ctx context.Context, evt storage.Event) error {
	ch, ok := ToChange(evt)
	if !ok {
		w.logger.Warn("Skipping event with malformed id", "id", evt.Id)
	} else if err := w.sink.Submit(ctx, ch); err != nil {
		return fmt.Errorf("failed to forward change %s: %w", evt.Id, err)
	}

	if evt.ResumeToken == nil {
		return nil
	}
	if err := w.SaveCheckpoint(ctx, evt.ResumeToken); err != nil {
		// The change was forwarded; replaying it after a restart is harmless.
		w.logger.Warn("Failed to save checkpoint", "error", err)
	}
	return nil
}

// Watch opens the change stream at the stored checkpoint.
func (w *Watcher) Watch(ctx context.Context) (<-chan storage.Event, error) {
	var resumeToken interface{}

	checkpoint, err := w.store.Get(ctx, w.opts.CheckpointKey)
	switch {
	case err == nil && checkpoint != nil:
		if token, ok := checkpoint.Data["token"]; ok {
			resumeToken = token
			w.logger.Info("Resuming from checkpoint", "key", w.opts.CheckpointKey)
		}
	case errors.Is(err, model.ErrNotFound):
		if !w.opts.StartFromNow {
			return nil, fmt.Errorf("checkpoint %s not found and start_from_now is false", w.opts.CheckpointKey)
		}
		w.logger.Info("No checkpoint, starting from now", "key", w.opts.CheckpointKey)
	default:
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	return w.store.Watch(ctx, w.collections, resumeToken, storage.WatchOptions{IncludeBefore: true})
}

// SaveCheckpoint stores token as the resume point.
func (w *Watcher) SaveCheckpoint(ctx context.Context, token interface{}) error {
	return w.store.Set(ctx, w.opts.CheckpointKey, map[string]interface{}{
		"token":     token,
		"updatedAt": time.Now().UnixMilli(),
	})
}

// ToChange converts a storage event. ok is false when the event id is not a
// document path.
func ToChange(evt storage.Event) (ch indexsync.Change, ok bool) {
	collection, id, ok := storage.SplitPath(evt.Id)
	if !ok {
		return indexsync.Change{}, false
	}
	ch = indexsync.Change{Collection: collection, DocumentID: id}

	if evt.Before != nil {
		ch.Before = dataOf(evt.Before)
	}
	if evt.Type != storage.EventDelete && evt.Document != nil {
		ch.After = dataOf(evt.Document)
	}
	return ch, true
}

func dataOf(doc *storage.StoredDoc) model.Document {
	if doc.Data == nil {
		return model.Document{}
	}
	return model.Document(doc.Data)
}
