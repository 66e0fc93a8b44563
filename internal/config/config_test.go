package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.ImageBackend)
	assert.Positive(t, cfg.SessionTTL)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "SESSION_TTL", "LOGIN_RATE", "LOGIN_BURST", "COPYWRITER_BACKEND", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.InDelta(t, 1.0, cfg.LoginRate, 0.0001)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/perfumery.db")
	t.Setenv("IMAGE_BACKEND", "memory")
	t.Setenv("COPYWRITER_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("LOGIN_RATE", "0.5")
	t.Setenv("LOGIN_BURST", "3")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/perfumery.db", cfg.DBPath)
	assert.Equal(t, "memory", cfg.ImageBackend)
	assert.Equal(t, "claude", cfg.CopywriterBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.InDelta(t, 0.5, cfg.LoginRate, 0.0001)
	assert.Equal(t, 3, cfg.LoginBurst)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"SESSION_TTL":     "tomorrow",
		"LOGIN_RATE":      "-1",
		"LOGIN_BURST":     "many",
		"METRICS_ENABLED": "perhaps",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}
