package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")
	require.False(t, envBool("X_BOOL", true))
	require.True(t, envBool("X_UNSET_BOOL", true))
	require.Equal(t, 7, envInt("X_INT", 7))
	require.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
	require.Equal(t, "d", envStr("X_UNSET_STR", "d"))
}

func TestRabbitURLPrecedence(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://b")
	require.Equal(t, "amqp://b", RabbitURL())
	t.Setenv("RABBITMQ_URL", "amqp://a")
	require.Equal(t, "amqp://a", RabbitURL())
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	c := LoadRateLimitConfig()
	require.Equal(t, 1, c.Capacity)
	require.Equal(t, 10*time.Second, c.TTL)
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	c := LoadCacheConfig()
	require.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
}

func TestRedisOptionsHostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	o := RedisOptions()
	require.Equal(t, "cache:6380", o.Addr)
	require.Equal(t, 2, o.DB)
	require.Nil(t, o.TLSConfig)
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("GTR_FROM_FILE=file\nGTR_PRESET=file\n"), 0o600))
	t.Setenv("GTR_PRESET", "env")
	t.Setenv("GTR_FROM_FILE", "")
	os.Unsetenv("GTR_FROM_FILE")
	LoadDotEnv(p)
	t.Cleanup(func() { os.Unsetenv("GTR_FROM_FILE") })
	require.Equal(t, "file", os.Getenv("GTR_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("GTR_PRESET"))
}
