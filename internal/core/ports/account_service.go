package ports

import (
	"context"
	"time"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// UpdateAccountInput carries an update request after transport decoding.
// Banned is nil when the caller did not send a boolean.
type UpdateAccountInput struct {
	AccountID   string
	Role        *domain.Role
	Banned      *bool
	BannedUntil *time.Time
}

// AccountService implements the privileged directory operations. The caller
// is the actor resolved from the bearer credential, never client state.
type AccountService interface {
	ListAccounts(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error)
	UpdateAccount(ctx context.Context, caller *domain.Actor, in UpdateAccountInput) (domain.AccountRecord, error)
}
