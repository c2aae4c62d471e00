package domain

import "time"

// Role is the privilege level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultBanDuration is applied when an account is banned without an explicit end.
const DefaultBanDuration = 365 * 24 * time.Hour

// ParseRole validates a role coming from a request body.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

// NormalizeRole maps stored values onto a known role. Anything that is not
// "admin" is treated as a plain user.
func NormalizeRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Account is the stored identity, including credentials. It never leaves the
// server.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	BannedUntil  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignInAt *time.Time
}

// Record projects the account onto the directory row exposed to admins.
func (a *Account) Record() AccountRecord {
	return AccountRecord{
		ID:           a.ID,
		Email:        a.Email,
		CreatedAt:    a.CreatedAt,
		LastSignInAt: cloneTime(a.LastSignInAt),
		Role:         NormalizeRole(string(a.Role)),
		IsBanned:     a.BannedUntil != nil,
		BannedUntil:  cloneTime(a.BannedUntil),
	}
}

// Actor projects the account onto the session subject.
func (a *Account) Actor() *Actor {
	return &Actor{
		ID:          a.ID,
		Email:       a.Email,
		Role:        NormalizeRole(string(a.Role)),
		BannedUntil: cloneTime(a.BannedUntil),
	}
}

// AccountRecord is one row of the directory.
type AccountRecord struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
	Role         Role       `json:"role"`
	IsBanned     bool       `json:"is_banned"`
	BannedUntil  *time.Time `json:"banned_until,omitempty"`
}

// Clone returns a deep copy of the record.
func (r AccountRecord) Clone() AccountRecord {
	r.LastSignInAt = cloneTime(r.LastSignInAt)
	r.BannedUntil = cloneTime(r.BannedUntil)
	return r
}

// AccountUpdate describes a single privileged mutation. Nil fields are left
// untouched; Ban is applied only when non-nil.
type AccountUpdate struct {
	Role *Role
	Ban  *BanChange
}

// BanChange sets or clears the ban. Until is ignored when Banned is false.
type BanChange struct {
	Banned bool
	Until  *time.Time
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
