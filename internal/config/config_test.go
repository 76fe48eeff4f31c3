package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "STORAGE", "SECRET_KEY", "SERVER_PORT", "SESSION_MAX_AGE",
		"ACCESS_TOKEN_MAX_AGE", "FEED_WORKERS", "REDIS_URL", "RUN_MIGRATIONS",
		"SECURE_COOKIES", "DEFAULT_IMAGE_URL", "DEFAULT_HEADER_IMAGE_URL", "R2_ACCOUNT_ID",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.NotEmpty(t, cfg.SecretKey)
	assert.Equal(t, 7*24*3600, cfg.SessionMaxAge)
	assert.Equal(t, 900, cfg.AccessTokenMaxAge)
	assert.Equal(t, 2, cfg.FeedWorkers)
	assert.True(t, cfg.RunMigrations)
	assert.False(t, cfg.SecureCookies)
	assert.Equal(t, model.DefaultImageURL, cfg.DefaultImageURL)
	assert.Equal(t, model.DefaultHeaderImageURL, cfg.DefaultHeaderImageURL)
	assert.False(t, cfg.MediaEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://warbler@db/warbler")
	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("SESSION_MAX_AGE", "60")
	t.Setenv("FEED_WORKERS", "-1")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://warbler@db/warbler", cfg.DatabaseURL)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, 60, cfg.SessionMaxAge)
	assert.Equal(t, 2, cfg.FeedWorkers)
	assert.False(t, cfg.RunMigrations)
}
