package ports

import (
	"context"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// TokenClaims is the subset of an access token the server relies on.
type TokenClaims struct {
	UserID  string
	TokenID string
	Role    domain.Role
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.Actor, error)
	Login(ctx context.Context, email, password string) (string, *domain.Actor, error)
	Refresh(ctx context.Context, claims TokenClaims) (string, *domain.Actor, error)
	Logout(ctx context.Context, claims TokenClaims) error
	// CurrentActor loads the authoritative actor for the token subject.
	CurrentActor(ctx context.Context, userID string) (*domain.Actor, error)
}
