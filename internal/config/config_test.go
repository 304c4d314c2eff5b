package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, time.Hour, cfg.JWT.ImpersonationExpiry)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "short")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5433", User: "shop", Password: "pw", Name: "prints", SSLMode: "require"}
	assert.Equal(t, "host=db user=shop password=pw dbname=prints port=5433 sslmode=require TimeZone=UTC", d.DSN())

	d.URL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())
}

func TestRedisEnabled(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2, cfg.Redis.DB)
}
