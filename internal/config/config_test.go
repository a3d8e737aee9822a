package config_test

import (
	"testing"
	"time"

	"github.com/robertarktes/eventhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "MONGO_DATABASE", "TOKEN_TTL", "LIFECYCLE_INTERVAL", "STATS_CACHE_TTL", "RATE_LIMIT_USER", "MAX_AVATAR_BYTES"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "eventhub", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Minute, cfg.LifecycleInterval)
	assert.Equal(t, time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, 60, cfg.RateLimitUser)
	assert.Equal(t, int64(5<<20), cfg.MaxAvatarBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("RATE_LIMIT_IP", "12")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.RateLimitIP)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LIFECYCLE_INTERVAL", "often")
	_, err := config.Load()
	assert.ErrorContains(t, err, "LIFECYCLE_INTERVAL")
}

func TestRequireAPI(t *testing.T) {
	cfg := &config.Config{CRDBDSN: "x", MongoURI: "y", RedisAddr: "z"}
	assert.ErrorContains(t, cfg.RequireAPI(), "JWT_SECRET")

	cfg.JWTSecret = "k"
	assert.NoError(t, cfg.RequireAPI())
}
