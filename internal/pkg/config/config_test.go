package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.DispatchWorkers)
	assert.Equal(t, "admin_console", cfg.Mongo.Database)
	assert.Equal(t, "console:session_events", cfg.Redis.SessionChannel)
	assert.Empty(t, cfg.Bootstrap.Email)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ENV", "production")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	cfg := Load()

	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "root@example.com", cfg.Bootstrap.Email)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConsole_Defaults(t *testing.T) {
	cfg := LoadConsole()

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
