package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "BACKEND_URL", "API_URL", "MEDIA_BASE_URL", "STORAGE",
		"DB_DSN", "REDIS_URL", "LOG_FILE", "SESSION_IDLE", "BACKEND_TIMEOUT", "OTEL_EXPORTER", "OTEL_ENDPOINT"} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, DevelopmentBackend, cfg.BackendURL)
	assert.Equal(t, DevelopmentBackend, cfg.APIURL)
	assert.Equal(t, DevelopmentBackend, cfg.MediaBaseURL)
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.False(t, cfg.Production())
}

func TestProductionSwitchesBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_URL", "https://api.example.com/")
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, ProductionBackend, cfg.BackendURL)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
}

func TestBackendURLOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("BACKEND_URL", "http://backend:8000/")
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8000", cfg.BackendURL)
	assert.Equal(t, "http://backend:8000", cfg.APIURL)
}

func TestBadDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_TIMEOUT", "soon")
	assert.Equal(t, 15*time.Second, Load().BackendTimeout)
}

func TestLayering(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "4000")
	t.Setenv("STORAGE", "redis")
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"5000\"\nstorage: memory\nsession_idle: 5m\n"), 0o644))

	cfg, err := Parse([]string{"--config", path, "--port", "6000"})
	require.NoError(t, err)
	assert.Equal(t, "6000", cfg.Port, "flag beats file")
	assert.Equal(t, "memory", cfg.Storage, "file beats env")
	assert.Equal(t, 5*time.Minute, cfg.SessionIdle)
}

func TestParseErrors(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, err = Parse([]string{"--no-such-flag"})
	assert.Error(t, err)

	_, err = Parse([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}
