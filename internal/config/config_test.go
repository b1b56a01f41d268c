package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "1M", cfg.BodyLimit)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, map[string]bool{"POST": true}, cfg.Cache.Methods)
	assert.Equal(t, KeyMethodRouteBody, cfg.Cache.KeyStrategy)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CACHE_ENABLED", "yes")
	t.Setenv("CACHE_METHODS", "get, post ,")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "POST": true}, cfg.Cache.Methods)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL, "malformed duration falls back to default")
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLegacyEnvironmentFlag(t *testing.T) {
	t.Setenv("PYTHON_ENV", "staging")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-dotenv\nLOG_FORMAT=pretty\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SERVICE_NAME") })
	t.Setenv("LOG_FORMAT", "json") // the environment wins over the file

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.ServiceName)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadMalformedDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("'unterminated\n"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()}, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), RedisConfig{Addr: addr}, 300*time.Millisecond)
	assert.Error(t, err)
}
