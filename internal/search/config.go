package search

import (
	"fmt"
	"os"
	"time"
)

const (
	ProviderAlgolia = "algolia"
	ProviderMemory  = "memory"
)

type Config struct {
	Provider    string `yaml:"provider"` // algolia or memory
	AppID       string `yaml:"app_id"`
	APIKey      string `yaml:"api_key"`
	IndexPrefix string `yaml:"index_prefix"`

	// PollInterval is the delay between task status checks.
	PollInterval time.Duration `yaml:"poll_interval"`
	// WaitTimeout bounds a single WaitForTask call.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	// RequestsPerSecond caps calls to the search API, 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

func DefaultConfig() Config {
	return Config{
		Provider:          ProviderAlgolia,
		PollInterval:      200 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
		RequestsPerSecond: 50,
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = defaults.WaitTimeout
	}
}

func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ALGOLIA_APP_ID"); val != "" {
		c.AppID = val
	}
	if val := os.Getenv("ALGOLIA_API_KEY"); val != "" {
		c.APIKey = val
	}
}

func (c *Config) ResolvePaths(_ string) { _ = c }

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory:
	case ProviderAlgolia:
		if c.AppID == "" || c.APIKey == "" {
			return fmt.Errorf("search.app_id and search.api_key are required for the algolia provider")
		}
	default:
		return fmt.Errorf("unknown search provider %q", c.Provider)
	}
	if c.PollInterval < 0 || c.WaitTimeout < 0 {
		return fmt.Errorf("search.poll_interval and search.wait_timeout must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("search.requests_per_second must not be negative")
	}
	return nil
}
