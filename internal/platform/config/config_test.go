package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "false")
	t.Setenv("LOCK_BACKEND", "postgres")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.TokenRefreshMargin)
	assert.Equal(t, 20*time.Minute, cfg.SyncTokenThreshold)
	assert.Equal(t, 24*time.Hour, cfg.FullSyncInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.BidirectionalWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.CatchupWindow)
	assert.Equal(t, 50, cfg.PushBatchSize)
	assert.Equal(t, 3, cfg.ExternalMaxAttempts)
	assert.Equal(t, "30-M", cfg.SyncRateLimit)
	assert.Equal(t, "1", cfg.QuickBooks.ServiceItemID)
}

func TestLoadConfigOverridesAndFallbacks(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "false")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("LOCK_BACKEND", "REDIS")
	t.Setenv("SYNC_TOKEN_THRESHOLD", "15m")
	t.Setenv("CATCHUP_WINDOW", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, LockBackendRedis, cfg.LockBackend)
	assert.Equal(t, 15*time.Minute, cfg.SyncTokenThreshold)
	assert.Equal(t, 30*24*time.Hour, cfg.CatchupWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("unknown lock backend", func(t *testing.T) {
		t.Setenv("IS_PRODUCTION", "false")
		t.Setenv("SCHEDULER_ENABLED", "false")
		t.Setenv("LOCK_BACKEND", "etcd")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "LOCK_BACKEND")
	})

	t.Run("production needs secrets", func(t *testing.T) {
		t.Setenv("LOCK_BACKEND", "postgres")
		t.Setenv("SCHEDULER_ENABLED", "false")
		t.Setenv("IS_PRODUCTION", "true")
		t.Setenv("SYNC_SECRET", "")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "SYNC_SECRET")
	})

	t.Run("scheduler needs tenant", func(t *testing.T) {
		t.Setenv("IS_PRODUCTION", "false")
		t.Setenv("LOCK_BACKEND", "none")
		t.Setenv("SCHEDULER_ENABLED", "true")
		t.Setenv("DEFAULT_TENANT_ID", "")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "DEFAULT_TENANT_ID")
	})
}
