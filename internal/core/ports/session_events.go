package ports

import (
	"context"
	"time"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// SessionPublisher pushes session-change notifications to live consoles.
type SessionPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
}

// SessionSource is the identity backend as seen by a console: one query for
// the current session plus an ordered stream of changes.
type SessionSource interface {
	// CurrentSession returns the current actor, or nil when signed out.
	CurrentSession(ctx context.Context) (*domain.Actor, error)
	// Subscribe returns the notification stream and a function releasing it.
	// The channel is closed after release.
	Subscribe(ctx context.Context) (<-chan domain.SessionEvent, func(), error)
}

// TokenDenylist records revoked access tokens until they would expire anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
