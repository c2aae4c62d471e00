package handler

import (
	"time"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// updateAccountRequest is the body of POST /admin/users/update. Banned is a
// pointer so an absent field leaves the ban untouched.
type updateAccountRequest struct {
	AccountID   string  `json:"accountId"   validate:"required"`
	Role        *string `json:"role"        validate:"omitempty,oneof=admin user"`
	Banned      *bool   `json:"banned"`
	BannedUntil *string `json:"bannedUntil"`
}

type listAccountsResponse struct {
	Data []domain.AccountRecord `json:"data"`
}

// updatedAccount is the subset of the record echoed after an update.
type updatedAccount struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	IsBanned    bool        `json:"is_banned"`
	BannedUntil *time.Time  `json:"banned_until"`
}

type updateAccountResult struct {
	Success bool           `json:"success"`
	User    updatedAccount `json:"user"`
}

type updateAccountResponse struct {
	Data updateAccountResult `json:"data"`
}

// normalize treats an empty role the same as an absent one.
func (r *updateAccountRequest) normalize() {
	if r.Role != nil && *r.Role == "" {
		r.Role = nil
	}
}
