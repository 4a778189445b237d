package indexsync

import (
	"fmt"
	"os"
	"time"
)

const (
	DefaultCheckpointKey   = "sys/checkpoints/search_sync"
	DefaultStreamName      = "SEARCH_SYNC"
	DefaultConsumerName    = "search-sync"
	DefaultTaskTimeout     = 60 * time.Second
	DefaultDrainTimeout    = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultReconnectBackoff    = time.Second
	DefaultMaxReconnectBackoff = 30 * time.Second
	DefaultMaxReconnects       = 10
)

type Config struct {
	Rules []Rule `yaml:"rules"`

	// DeleteOnRemove removes the index record when its source document is
	// deleted. When false, deletions are logged and ignored.
	DeleteOnRemove bool `yaml:"delete_on_remove"`

	// StartFromNow lets the watcher start at the head of the change stream
	// when no checkpoint exists. When false a missing checkpoint is an error.
	StartFromNow  bool          `yaml:"start_from_now"`
	CheckpointKey string        `yaml:"checkpoint_key"`
	TaskTimeout   time.Duration `yaml:"task_timeout"`

	// The watcher reopens a closed change stream from the checkpoint,
	// doubling the wait from ReconnectBackoff up to MaxReconnectBackoff.
	// After MaxReconnects consecutive failures it gives up.
	ReconnectBackoff    time.Duration `yaml:"reconnect_backoff"`
	MaxReconnectBackoff time.Duration `yaml:"max_reconnect_backoff"`
	MaxReconnects       int           `yaml:"max_reconnects"`

	// NatsURL enables the JetStream task queue. Empty means changes are
	// handled in the watcher's process.
	NatsURL         string        `yaml:"nats_url"`
	StreamName      string        `yaml:"stream_name"`
	ConsumerName    string        `yaml:"consumer_name"`
	WorkerCount     int           `yaml:"worker_count"`
	DrainTimeout    time.Duration `yaml:"drain_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultRules index products and categories the way the storefront
// expects: product records drop secondary images, flatten variations and
// carry the category name instead of its id.
func DefaultRules() []Rule {
	return []Rule{
		{
			Collection:    "products",
			Index:         "products",
			StripFields:   []string{"otherImages"},
			FlattenFields: []string{"variationTypes"},
			Reference: &Reference{
				Field:      "category",
				Collection: "categories",
				LabelField: "name",
			},
		},
		{
			Collection: "categories",
			Index:      "categories",
		},
	}
}

func DefaultConfig() Config {
	return Config{
		Rules:               DefaultRules(),
		DeleteOnRemove:      true,
		StartFromNow:        true,
		CheckpointKey:       DefaultCheckpointKey,
		TaskTimeout:         DefaultTaskTimeout,
		ReconnectBackoff:    DefaultReconnectBackoff,
		MaxReconnectBackoff: DefaultMaxReconnectBackoff,
		MaxReconnects:       DefaultMaxReconnects,
		StreamName:          DefaultStreamName,
		ConsumerName:        DefaultConsumerName,
		WorkerCount:         8,
		DrainTimeout:        DefaultDrainTimeout,
		ShutdownTimeout:     DefaultShutdownTimeout,
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if len(c.Rules) == 0 {
		c.Rules = defaults.Rules
	}
	for i := range c.Rules {
		if c.Rules[i].Index == "" {
			c.Rules[i].Index = c.Rules[i].Collection
		}
		if ref := c.Rules[i].Reference; ref != nil && ref.LabelField == "" {
			ref.LabelField = "name"
		}
	}
	if c.CheckpointKey == "" {
		c.CheckpointKey = defaults.CheckpointKey
	}
	if c.TaskTimeout == 0 {
		c.TaskTimeout = defaults.TaskTimeout
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = defaults.ReconnectBackoff
	}
	if c.MaxReconnectBackoff == 0 {
		c.MaxReconnectBackoff = defaults.MaxReconnectBackoff
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = defaults.MaxReconnects
	}
	if c.StreamName == "" {
		c.StreamName = defaults.StreamName
	}
	if c.ConsumerName == "" {
		c.ConsumerName = defaults.ConsumerName
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = defaults.WorkerCount
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = defaults.DrainTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("STOREFRONT_NATS_URL"); val != "" {
		c.NatsURL = val
	}
}

func (c *Config) ResolvePaths(string) {}

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Collection == "" {
			return fmt.Errorf("sync.rules[%d].collection is required", i)
		}
		if seen[r.Collection] {
			return fmt.Errorf("sync.rules: duplicate rule for collection %q", r.Collection)
		}
		seen[r.Collection] = true
		if r.Index == "" {
			return fmt.Errorf("sync.rules[%d].index is required", i)
		}
		if ref := r.Reference; ref != nil && (ref.Field == "" || ref.Collection == "") {
			return fmt.Errorf("sync.rules[%d].reference needs field and collection", i)
		}
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("sync.worker_count must not be negative")
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("sync.task_timeout must not be negative")
	}
	if c.ReconnectBackoff < 0 || c.MaxReconnectBackoff < c.ReconnectBackoff {
		return fmt.Errorf("sync.reconnect_backoff must be positive and not above sync.max_reconnect_backoff")
	}
	if c.MaxReconnects < 0 {
		return fmt.Errorf("sync.max_reconnects must not be negative")
	}
	return nil
}

// Collections lists the watched collections in rule order.
func (c *Config) Collections() []string {
	out := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		out[i] = r.Collection
	}
	return out
}
