package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openairmap/sensor-api/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sensors")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("API_BEARER_TOKEN", "")
	t.Setenv("API_REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("MAX_CSV_UPLOAD_MB", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 16, cfg.MaxCSVUploadMB)
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sensors")

	t.Setenv("PORT", "not-a-port")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("PORT", "9090")
	t.Setenv("API_REQUEST_TIMEOUT_SECONDS", "0")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("API_REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("MAX_CSV_UPLOAD_MB", "-1")
	_, err = config.Load()
	assert.Error(t, err)

	t.Setenv("MAX_CSV_UPLOAD_MB", "8")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.MaxCSVUploadMB)
}
