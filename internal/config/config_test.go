package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsLocal(t *testing.T) {
	for env, want := range map[string]bool{
		"dev": true, "Development": true, "local": true,
		"prod": false, "staging": false, "": false,
	} {
		require.Equal(t, want, Config{Env: env}.IsLocal(), env)
	}
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	cfg := LoadRateLimitConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, 10, cfg.Capacity)
	require.Equal(t, "ip_project", cfg.KeyStrategy)
	require.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, 3, cfg.Capacity)
	require.Equal(t, 1, cfg.RefillTokens)
	require.Equal(t, time.Minute, cfg.RefillInterval)
	require.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")
	rc := LoadRedisConfig()
	require.Equal(t, "cache:6380", rc.Addr)
	require.Equal(t, 2, rc.DB)
	require.True(t, rc.TLS)
}
