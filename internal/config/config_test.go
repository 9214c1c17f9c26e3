package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-webhelpers/pkg/cloudauth"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "samvad-webhelpers", cfg.AppName)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "none", cfg.StorageType)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)

	auth, err := cfg.CloudAuth.AuthConfig()
	require.NoError(t, err)
	assert.Equal(t, cloudauth.Config{}, auth)
}

func TestLoadFromEnvSealsKey(t *testing.T) {
	t.Setenv("CLOUD_AUTH_PROVIDER", "gcp")
	t.Setenv("CLOUD_AUTH_KEY", "token-123")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "[REDACTED]", cfg.CloudAuth.Key.String())

	auth, err := cfg.CloudAuth.AuthConfig()
	require.NoError(t, err)
	assert.Equal(t, cloudauth.ProviderGCP, auth.Provider)
	assert.Equal(t, "token-123", auth.Key)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhelper.yaml")
	raw := `
log_level: debug
storage_type: bbolt
cloud_auth:
  provider: custom
  key: abc
  custom_header_name: X-Api-Token
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "bbolt", cfg.StorageType)

	auth, err := cfg.CloudAuth.AuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "X-Api-Token", auth.CustomHeaderName)
	assert.Equal(t, "abc", auth.Key)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv("REQUEST_TIMEOUT_SECONDS", "0")
		_, err := load(viper.New(), "")
		require.Error(t, err)
	})
	t.Run("provider", func(t *testing.T) {
		t.Setenv("CLOUD_AUTH_PROVIDER", "oracle")
		_, err := load(viper.New(), "")
		require.ErrorIs(t, err, cloudauth.ErrConfig)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
