package indexsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storefrontbase/storefront/internal/search"
)

// Syncer handles changes to the collections named by its rules.
type Syncer struct {
	rules          map[string]Rule
	order          []string
	deleteOnRemove bool
	resolver       *Resolver
	writer         *writer
	conditions     *Conditions
	metrics        Metrics
	logger         *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Syncer) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSyncer builds a Syncer for cfg's rules. Rule conditions are compiled
// up front so a bad expression fails at startup.
func NewSyncer(cfg Config, reader DocumentReader, client search.Client, opts ...Option) (*Syncer, error) {
	conditions, err := NewConditions()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition environment: %w", err)
	}

	s := &Syncer{
		rules:          make(map[string]Rule, len(cfg.Rules)),
		deleteOnRemove: cfg.DeleteOnRemove,
		writer:         &writer{client: client},
		conditions:     conditions,
		metrics:        NoopMetrics{},
		logger:         slog.Default().With("component", "indexsync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = NewResolver(reader, s.logger)

	for _, r := range cfg.Rules {
		if r.Condition != "" {
			if err := conditions.Compile(r.Condition); err != nil {
				return nil, fmt.Errorf("rule for %s: %w", r.Collection, err)
			}
		}
		s.rules[r.Collection] = r
		s.order = append(s.order, r.Collection)
	}
	return s, nil
}

// Collections returns the collections the syncer has rules for.
func (s *Syncer) Collections() []string {
	return append([]string(nil), s.order...)
}

// Handle runs ch through the pipeline. It never returns an error: every
// failure is logged and reported in the Outcome.
func (s *Syncer) Handle(ctx context.Context, ch Change) (out Outcome) {
	start := time.Now()
	out = Outcome{State: StateReceived, ObjectID: ch.DocumentID}
	defer func() {
		s.metrics.ObserveSync(ch.Collection, string(out.State), time.Since(start))
	}()

	rule, ok := s.rules[ch.Collection]
	if !ok {
		s.logger.Debug("No sync rule for collection", "collection", ch.Collection)
		out.State = StateNoop
		return out
	}
	out.Index = rule.Index
	logger := s.logger.With("collection", ch.Collection, "index", rule.Index, "objectID", ch.DocumentID)

	if ch.IsDelete() {
		return s.remove(ctx, logger, out, "document deleted")
	}

	match, err := s.conditions.Match(rule.Condition, ch)
	if err != nil {
		logger.Error("Sync condition failed", "error", err)
		return fail(out, err)
	}
	if !match {
		return s.remove(ctx, logger, out, "condition not met")
	}

	fields := Normalize(ch.After, rule)
	out.State = StateNormalized

	s.resolver.Resolve(ctx, fields, rule.Reference)
	out.State = StateResolved

	record := buildRecord(ch.DocumentID, fields)
	out.Record = record

	taskID, err := s.writer.save(ctx, rule.Index, record)
	if err != nil {
		logger.Error("Failed to submit search record", "error", err)
		return fail(out, err)
	}
	out.State = StateSubmitted
	out.TaskID = taskID

	if err := s.writer.confirm(ctx, rule.Index, taskID); err != nil {
		logger.Error("Search task not confirmed", "taskID", taskID, "error", err)
		return fail(out, err)
	}
	out.State = StateConfirmed
	logger.Info("Search record synced", "taskID", taskID)
	return out
}

// remove drops the record for out.ObjectID from the index, or only logs
// when removals are disabled.
func (s *Syncer) remove(ctx context.Context, logger *slog.Logger, out Outcome, reason string) Outcome {
	if !s.deleteOnRemove {
		logger.Warn("Search record left in index", "reason", reason)
		out.State = StateNoop
		return out
	}

	taskID, err := s.writer.remove(ctx, out.Index, out.ObjectID)
	if err != nil {
		logger.Error("Failed to delete search record", "reason", reason, "error", err)
		return fail(out, err)
	}
	out.TaskID = taskID

	if err := s.writer.confirm(ctx, out.Index, taskID); err != nil {
		logger.Error("Search delete not confirmed", "taskID", taskID, "error", err)
		return fail(out, err)
	}
	out.State = StateDeleted
	logger.Info("Search record deleted", "reason", reason, "taskID", taskID)
	return out
}

func fail(out Outcome, err error) Outcome {
	out.State = StateFailed
	out.Err = err
	return out
}
