package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultDialTimeout = 5 * time.Second

// Config describes the Redis instance shared by the token denylist and the
// session-event channel.
type Config struct {
	Addr           string
	DB             int
	SessionChannel string
	DialTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.SessionChannel == "" {
		c.SessionChannel = DefaultSessionChannel
	}
	return c
}

// Bus is a connected Redis client plus the session channel name. The server
// takes the denylist and publisher from it, the console the subscriber.
type Bus struct {
	client  *redis.Client
	channel string
}

// Open connects and pings. A failed ping closes the client.
func Open(ctx context.Context, cfg Config) (*Bus, error) {
	cfg = cfg.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Bus{client: client, channel: cfg.SessionChannel}, nil
}

func (b *Bus) Channel() string { return b.channel }

func (b *Bus) Denylist() *TokenDenylist { return NewTokenDenylist(b.client) }

func (b *Bus) Publisher() *SessionPublisher { return NewSessionPublisher(b.client, b.channel) }

func (b *Bus) Subscriber(log zerolog.Logger) *SessionSubscriber {
	return NewSessionSubscriber(b.client, b.channel, log)
}

// Ping is used by the readiness check.
func (b *Bus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Bus) Close() error { return b.client.Close() }
