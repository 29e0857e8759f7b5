package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	c := FromEnv()
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, "package-images", c.StorageBucket)
	assert.False(t, c.AutoMigrate)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("LOGIN_RPS", "2.5")
	t.Setenv("REDIS_DB", "not-a-number")
	c := FromEnv()
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.True(t, c.AutoMigrate)
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.Equal(t, 2.5, c.LoginRPS)
	assert.Equal(t, 0, c.RedisDB)
	assert.Equal(t, "travel.db", c.DatabaseDSN())

	c.DBDriver = "mysql"
	assert.Equal(t, c.MySQLDSN, c.DatabaseDSN())
}

func TestLoad_ReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9999\nSTORAGE_BUCKET=from-file\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("STORAGE_BUCKET", "from-env")
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	c := Load()
	assert.Equal(t, ":9999", c.HTTPAddr)
	assert.Equal(t, "from-env", c.StorageBucket)
}
