package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chxlky/trello-agent/database"
	"github.com/chxlky/trello-agent/internal/resolver"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})
}

func TestBuildCacheMemory(t *testing.T) {
	resetViper(t)
	viper.Set("cache.backend", "memory")
	viper.Set("cache.ttl", "5m")

	a := &app{}
	cache, err := a.buildCache(context.Background(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &resolver.MemoryCache{}, cache)
	assert.Nil(t, a.redis)
}

func TestBuildCacheRedis(t *testing.T) {
	resetViper(t)
	mr := miniredis.RunT(t)
	viper.Set("cache.backend", "redis")
	viper.Set("cache.redis.addr", mr.Addr())

	a := &app{}
	cache, err := a.buildCache(context.Background(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	assert.IsType(t, &resolver.RedisCache{}, cache)
	require.NotNil(t, a.redis)
}

func TestBuildCacheRedisUnreachable(t *testing.T) {
	resetViper(t)
	viper.Set("cache.backend", "redis")
	viper.Set("cache.redis.addr", "127.0.0.1:1")

	a := &app{}
	_, err := a.buildCache(context.Background(), zaptest.NewLogger(t))
	assert.Error(t, err)
	assert.Nil(t, a.redis)
}

func TestBuildCacheUnknownBackend(t *testing.T) {
	resetViper(t)
	viper.Set("cache.backend", "memcached")

	_, err := (&app{}).buildCache(context.Background(), zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "memcached")
}

func TestBuildAppRequiresTrelloCredentials(t *testing.T) {
	resetViper(t)
	db, err := database.Open(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)

	_, err = buildApp(context.Background(), db)
	assert.ErrorContains(t, err, "trello.api_key")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database is closed on failure")
}

func TestBuildApp(t *testing.T) {
	resetViper(t)
	viper.Set("trello.api_key", "k")
	viper.Set("trello.api_token", "t")
	viper.Set("trello.base_url", "http://trello.test/1")
	db := database.Init(filepath.Join(t.TempDir(), "agent.db"))

	a, err := buildApp(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Equal(t, "http://trello.test/1", a.trello.BaseURL)
	assert.NotNil(t, a.pipeline)
	assert.NotNil(t, a.journal)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[trello]
api_key = "k"
api_token = "t"
board_ids = ["b1", "b2"]

[cache]
ttl = "10m"
`), 0o600))
	cfgFile = path

	require.NoError(t, loadConfig())
	assert.Equal(t, "k", viper.GetString("trello.api_key"))
	assert.Equal(t, []string{"b1", "b2"}, viper.GetStringSlice("trello.board_ids"))
	assert.Equal(t, 10*time.Minute, viper.GetDuration("cache.ttl"))
	assert.Equal(t, "8080", viper.GetString("server.port"))
	assert.True(t, viper.GetBool("cache.refresh_on_miss"))
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	resetViper(t)
	cfgFile = filepath.Join(t.TempDir(), "missing.toml")

	assert.Error(t, loadConfig())
}

func TestSetupLoggerDefaultsToDebug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, setupLogger("stderr"))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))
}

func TestSetupLoggerHonoursLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, setupLogger("stderr"))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))
	assert.True(t, zap.L().Core().Enabled(zap.WarnLevel))
}
