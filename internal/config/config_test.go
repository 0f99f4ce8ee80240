package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.Migrate)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2d")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")

	cfg, err := Load([]string{"--store", "memory", "--migrate", "--sweep-interval", "1m", "--addr", "127.0.0.1:8000"})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr)
	assert.Equal(t, 48*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/app", cfg.DB.DSN())
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = Load([]string{"--store", "mongo"})
	assert.ErrorContains(t, err, "unknown store")

	t.Setenv("JWT_EXPIRES_IN", "soon")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "JWT_EXPIRES_IN")

	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}
