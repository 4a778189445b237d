package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	PrivateKeyFile  string        `yaml:"private_key_file"`
	// MinPasswordLength applies to accounts created through createadmin.
	MinPasswordLength int `yaml:"min_password_length"`
}

func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		PrivateKeyFile:    "keys/auth_private.pem",
		MinPasswordLength: 6,
	}
}

func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = defaults.AccessTokenTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = defaults.RefreshTokenTTL
	}
	if c.PrivateKeyFile == "" {
		c.PrivateKeyFile = defaults.PrivateKeyFile
	}
	if c.MinPasswordLength == 0 {
		c.MinPasswordLength = defaults.MinPasswordLength
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STOREFRONT_PRIVATE_KEY_FILE"); v != "" {
		c.PrivateKeyFile = v
	}
}

func (c *Config) ResolvePaths(baseDir string) {
	if c.PrivateKeyFile != "" && !filepath.IsAbs(c.PrivateKeyFile) {
		c.PrivateKeyFile = filepath.Join(baseDir, c.PrivateKeyFile)
	}
}

func (c *Config) Validate() error {
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("identity: token ttls must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("identity: refresh_token_ttl must not be shorter than access_token_ttl")
	}
	if c.MinPasswordLength < 1 {
		return fmt.Errorf("identity: min_password_length must be positive")
	}
	return nil
}
