package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/storefrontbase/storefront/internal/catalog"
	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/storefrontbase/storefront/internal/search"
	"github.com/storefrontbase/storefront/internal/server"
	storage "github.com/storefrontbase/storefront/internal/storage/config"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is searched when no directory is given.
const DefaultConfigDir = "config"

// Config holds the application configuration
type Config struct {
	Server  server.Config `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`

	Storage  storage.Config   `yaml:"storage"`
	Identity identity.Config  `yaml:"identity"`
	Search   search.Config    `yaml:"search"`
	Sync     indexsync.Config `yaml:"sync"`
	Catalog  catalog.Config   `yaml:"catalog"`
}

// Default returns a configuration holding every section's defaults.
func Default() *Config {
	return &Config{
		Server:   server.DefaultConfig(),
		Logging:  DefaultLoggingConfig(),
		Storage:  storage.DefaultConfig(),
		Identity: identity.DefaultConfig(),
		Search:   search.DefaultConfig(),
		Sync:     indexsync.DefaultConfig(),
		Catalog:  catalog.DefaultConfig(),
	}
}

// LoadConfig loads configuration from configDir.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir
	}

	// Defaults first so YAML can override them, including bool fields.
	cfg := Default()

	for _, name := range []string{"config.yml", "config.local.yml"} {
		if err := loadFile(filepath.Join(configDir, name), cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyServiceConfigs(configDir, cfg.sections()...); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func (c *Config) sections() []ServiceConfig {
	return []ServiceConfig{
		&c.Server,
		&c.Logging,
		&c.Storage,
		&c.Identity,
		&c.Search,
		&c.Sync,
		&c.Catalog,
	}
}

// loadFile merges filename into cfg. A missing file is skipped.
func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		slog.Warn("Error reading config file", "file", filename, "error", err)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return nil
}
