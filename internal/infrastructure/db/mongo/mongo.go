package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultAppName     = "admin-console"
)

// Config describes where the Account Record Store lives.
type Config struct {
	URI         string
	Database    string
	AppName     string
	DialTimeout time.Duration
	// SkipIndexes leaves index management to an operator.
	SkipIndexes bool
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.AppName == "" {
		c.AppName = defaultAppName
	}
	return c
}

// Store owns the MongoDB client and the account repository built on it.
type Store struct {
	client   *mongo.Client
	Accounts *AccountRepository
}

// Open connects, pings the primary and prepares the accounts collection,
// creating its unique email index unless cfg.SkipIndexes is set.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetServerSelectionTimeout(cfg.DialTimeout)
	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{
		client:   client,
		Accounts: NewAccountRepository(client.Database(cfg.Database)),
	}
	if !cfg.SkipIndexes {
		if err := s.Accounts.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("account indexes: %w", err)
		}
	}
	return s, nil
}

// Ping reports whether the primary is reachable. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
