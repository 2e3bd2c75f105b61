package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ipinsight/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "http://localhost:8080/api", cfg.Backend.BaseURL)
	require.False(t, cfg.Backend.FallbackToSynthetic)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, 1000, cfg.History.MaxEntries)
	require.Equal(t, 7, cfg.History.AutoCleanDays)
	require.Equal(t, 20, cfg.Comparison.ListLimit)
	require.Equal(t, 100, cfg.Comparison.MaxEntries)
	require.Equal(t, config.DriverBolt, cfg.Storage.Driver)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
backend:
  baseURL: https://analysis.example.com/api
cache:
  ttl: 5m
history:
  autoCleanDays: -1
`), 0o600))

	t.Setenv("BACKEND_FALLBACK_TO_SYNTHETIC", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "https://analysis.example.com/api", cfg.Backend.BaseURL)
	require.True(t, cfg.Backend.FallbackToSynthetic)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, -1, cfg.History.AutoCleanDays)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "redis")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorContains(t, err, "unknown storage driver")
}

func TestLoad_InvalidMaintenanceInterval(t *testing.T) {
	t.Setenv("MAINTENANCE_INTERVAL", "-1s")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorContains(t, err, "maintenance.interval")
}
