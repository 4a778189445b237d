package identity

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ApplyDefaults_PartialConfig(t *testing.T) {
	cfg := Config{AccessTokenTTL: 30 * time.Minute}
	cfg.ApplyDefaults()

	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "keys/auth_private.pem", cfg.PrivateKeyFile)
	assert.Equal(t, 6, cfg.MinPasswordLength)
}

func TestConfig_EnvAndPaths(t *testing.T) {
	t.Setenv("STOREFRONT_PRIVATE_KEY_FILE", "secrets/key.pem")
	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	cfg.ResolvePaths("config")
	assert.Equal(t, filepath.Join("config", "secrets/key.pem"), cfg.PrivateKeyFile)

	cfg.PrivateKeyFile = "/abs/key.pem"
	cfg.ResolvePaths("config")
	assert.Equal(t, "/abs/key.pem", cfg.PrivateKeyFile)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.RefreshTokenTTL = time.Minute
	assert.ErrorContains(t, cfg.Validate(), "refresh_token_ttl")

	cfg = DefaultConfig()
	cfg.AccessTokenTTL = 0
	assert.Error(t, cfg.Validate())
}
