package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("CHARTGEN_API_KEY", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	unsetEnv(t, "CHARTGEN_API_KEY")
	t.Setenv("API_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Equal(t, DefaultProvider, cfg.Provider.Name)
	assert.Equal(t, DefaultGeminiModel, cfg.Provider.Model)
	assert.Equal(t, DefaultAddress, cfg.BasicConfig.ServerAddress)
	assert.Equal(t, DefaultUploadDir, cfg.BasicConfig.UploadDir)
	assert.EqualValues(t, DefaultMaxUploadBytes, cfg.BasicConfig.MaxUploadBytes)
	assert.Zero(t, cfg.AITimeout())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"basic_config": {"server_address": ":9000", "upload_dir": "/tmp/up", "ai_timeout_seconds": 5, "database": "sqlite3"},
		"provider": {"name": "openai", "model": "gpt-4o-mini", "base_url": "https://example.invalid/v1"},
		"databases": {"sqlite3": {"dsn": "charts.db"}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CHARTGEN_API_KEY", "prefixed")
	t.Setenv("CHARTGEN_ADDR", ":9100")
	t.Setenv("CHARTGEN_AI_TIMEOUT", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.Provider.APIKey)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, ":9100", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "/tmp/up", cfg.BasicConfig.UploadDir)
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
	assert.Equal(t, filepath.Join(dir, "charts.db"), cfg.Databases["sqlite3"].DSN)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadAITimeoutIsSeconds(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("CHARTGEN_AI_TIMEOUT", "45")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.AITimeout())

	t.Setenv("CHARTGEN_AI_TIMEOUT", "500ms")
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadIgnoresUnprefixedVariables(t *testing.T) {
	unsetEnv(t, "CHARTGEN_API_KEY")
	unsetEnv(t, "CHARTGEN_DB")
	unsetEnv(t, "CHARTGEN_MODEL")
	unsetEnv(t, "CHARTGEN_RATE_LIMIT")
	t.Setenv("API_KEY", "secret")
	t.Setenv("DB", "postgres")
	t.Setenv("MODEL", "x")
	t.Setenv("ADDR", ":1")
	t.Setenv("RATE_LIMIT", "7")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Empty(t, cfg.BasicConfig.Database)
	assert.Equal(t, DefaultGeminiModel, cfg.Provider.Model)
	assert.Equal(t, DefaultAddress, cfg.BasicConfig.ServerAddress)
	assert.Zero(t, cfg.BasicConfig.RateLimit)
	assert.Empty(t, cfg.BasicConfig.LogLevel)

	t.Setenv("CHARTGEN_DB", "sqlite3")
	t.Setenv("CHARTGEN_SQLITE_DSN", ":memory:")
	t.Setenv("CHARTGEN_MAX_UPLOAD_BYTES", "2048")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.BasicConfig.Database)
	assert.Equal(t, ":memory:", cfg.Databases["sqlite3"].DSN)
	assert.EqualValues(t, 2048, cfg.BasicConfig.MaxUploadBytes)
}

func TestSweeperDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultUploadTTL, cfg.UploadTTL())
	assert.Equal(t, DefaultSweepInterval, cfg.SweepInterval())

	cfg.BasicConfig.UploadTTL = 5
	cfg.BasicConfig.SweepInterval = 1
	assert.Equal(t, 5*time.Minute, cfg.UploadTTL())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}
