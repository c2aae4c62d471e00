package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Addr: "localhost:6379"}.withDefaults()

	assert.Equal(t, DefaultSessionChannel, cfg.SessionChannel)
	assert.Equal(t, defaultDialTimeout, cfg.DialTimeout)

	custom := Config{SessionChannel: "ops:sessions", DialTimeout: time.Second}.withDefaults()
	assert.Equal(t, "ops:sessions", custom.SessionChannel)
	assert.Equal(t, time.Second, custom.DialTimeout)
}

func TestOpen_UnreachableServer(t *testing.T) {
	// Port 1 is never a Redis server.
	bus, err := Open(context.Background(), Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})

	require.Error(t, err)
	assert.Nil(t, bus)
	assert.Contains(t, err.Error(), "redis ping 127.0.0.1:1")
}
