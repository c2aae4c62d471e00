package ports

import (
	"context"
	"time"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// UpdateAccountRequest is the wire body of the update account endpoint.
type UpdateAccountRequest struct {
	AccountID   string       `json:"accountId"`
	Role        *domain.Role `json:"role,omitempty"`
	Banned      *bool        `json:"banned,omitempty"`
	BannedUntil *time.Time   `json:"bannedUntil,omitempty"`
}

// AdminAPI is the console's view of the remote admin endpoints.
type AdminAPI interface {
	ListAccounts(ctx context.Context) ([]domain.AccountRecord, error)
	UpdateAccount(ctx context.Context, req UpdateAccountRequest) (domain.AccountRecord, error)
}
