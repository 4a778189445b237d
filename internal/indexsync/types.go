// Package indexsync mirrors document writes into the search index.
//
// Each write to a watched collection becomes one Change. The Syncer runs it
// through a fixed pipeline: normalize the fields, resolve the category
// reference, submit the record, then wait for the index to confirm the
// task. Failures are logged and reported in the Outcome, never returned.
package indexsync

import (
	"time"

	"github.com/storefrontbase/storefront/pkg/model"
)

// Change is a single document write. After is nil when the document was
// deleted; Before is nil when it was created or the prior state is unknown.
type Change struct {
	Collection string
	DocumentID string
	Before     model.Document
	After      model.Document
}

// IsDelete reports whether the change removed the document.
func (c Change) IsDelete() bool {
	return c.After == nil
}

// State is a step of the per-change state machine.
type State string

const (
	StateReceived   State = "received"
	StateNormalized State = "normalized"
	StateResolved   State = "resolved"
	StateSubmitted  State = "submitted"
	StateConfirmed  State = "confirmed"
	StateDeleted    State = "deleted"
	StateNoop       State = "noop"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateDeleted, StateNoop, StateFailed:
		return true
	}
	return false
}

// Outcome records how a change was handled.
type Outcome struct {
	State    State
	Index    string
	ObjectID string
	TaskID   int64
	// Err is the failure that moved the change to StateFailed.
	Err error
	// Record is the body submitted to the index, if any.
	Record map[string]interface{}
}

// Reference replaces a foreign key with a label read from another
// collection.
type Reference struct {
	Field      string `yaml:"field"`
	Collection string `yaml:"collection"`
	LabelField string `yaml:"label_field"`
}

// Rule describes how documents of one collection are indexed.
type Rule struct {
	Collection    string     `yaml:"collection"`
	Index         string     `yaml:"index"`
	StripFields   []string   `yaml:"strip_fields"`
	FlattenFields []string   `yaml:"flatten_fields"`
	Reference     *Reference `yaml:"reference"`
	// Condition is an optional CEL expression over doc, before, id and
	// collection. Documents for which it is false are not indexed.
	Condition string `yaml:"condition"`
}

// Metrics receives sync telemetry.
type Metrics interface {
	ObserveSync(collection string, state string, duration time.Duration)
	IncPublish(collection string, ok bool)
	IncConsume(collection string, ok bool)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ObserveSync(string, string, time.Duration) {}
func (NoopMetrics) IncPublish(string, bool)                   {}
func (NoopMetrics) IncConsume(string, bool)                   {}
