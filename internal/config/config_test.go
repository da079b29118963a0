package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/workshop.sock", cfg.Server.RPCSocket)
	assert.Equal(t, 12*time.Hour, cfg.Server.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "workshop.db", cfg.Database.Path)
	assert.Equal(t, "manager", cfg.Bootstrap.Username)
	assert.Equal(t, "admin123", cfg.Bootstrap.Password)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Logger.AsJSON)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("WORKSHOP_DB_PATH", "/var/lib/workshop/shop.db")
	t.Setenv("WORKSHOP_SESSION_TTL", "30m")
	t.Setenv("LOGGER_AS_JSON", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/workshop/shop.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.True(t, cfg.Logger.AsJSON)
}

func TestLoadReadsDotenvWhenLocal(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("WORKSHOP_HTTP_ADDR", "")
	os.Unsetenv("WORKSHOP_HTTP_ADDR")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WORKSHOP_HTTP_ADDR=127.0.0.1:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WORKSHOP_HTTP_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.HTTPAddr)
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("WORKSHOP_SESSION_TTL", "0s")
	_, err := Load()
	require.Error(t, err)
}
