package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/storefrontbase/storefront/internal/server/ratelimit"
)

type Config struct {
	Host string `yaml:"host"`

	HTTPPort         int           `yaml:"http_port"`
	HTTPReadTimeout  time.Duration `yaml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `yaml:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `yaml:"http_idle_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`

	EnableCORS     bool     `yaml:"enable_cors"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TrustedProxies lists peers (IPs or CIDRs) whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means none.
	TrustedProxies []string `yaml:"trusted_proxies"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits requests per client IP. Auth endpoints get their
// own, stricter budget.
type RateLimitConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Requests     int           `yaml:"requests"`
	Window       time.Duration `yaml:"window"`
	AuthRequests int           `yaml:"auth_requests"`
	AuthWindow   time.Duration `yaml:"auth_window"`
}

func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		HTTPPort:         8080,
		HTTPReadTimeout:  10 * time.Second,
		HTTPWriteTimeout: 30 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		RateLimit: RateLimitConfig{
			Enabled:      true,
			Requests:     100,
			Window:       time.Minute,
			AuthRequests: 10,
			AuthWindow:   time.Minute,
		},
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = defaults.HTTPPort
	}
	if c.HTTPReadTimeout == 0 {
		c.HTTPReadTimeout = defaults.HTTPReadTimeout
	}
	if c.HTTPWriteTimeout == 0 {
		c.HTTPWriteTimeout = defaults.HTTPWriteTimeout
	}
	if c.HTTPIdleTimeout == 0 {
		c.HTTPIdleTimeout = defaults.HTTPIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = defaults.RateLimit.Requests
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = defaults.RateLimit.Window
	}
	if c.RateLimit.AuthRequests == 0 {
		c.RateLimit.AuthRequests = defaults.RateLimit.AuthRequests
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = c.RateLimit.Window
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STOREFRONT_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
}

func (c *Config) ResolvePaths(_ string) {}

func (c *Config) Validate() error {
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("server: invalid http_port %d", c.HTTPPort)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("server: rate_limit needs positive requests and window")
	}
	if _, err := ratelimit.NewIPResolver(c.TrustedProxies); err != nil {
		return fmt.Errorf("server: trusted_proxies: %w", err)
	}
	return nil
}
