package domain

import "time"

// Actor is the authenticated subject of the current session.
type Actor struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        Role       `json:"role"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
}

// IsAdmin reports whether the actor holds the admin role. A nil actor is not
// an admin.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// IsBanned treats any recorded ban end as an active ban, without comparing it
// to the current time.
func (a *Actor) IsBanned() bool {
	return a != nil && a.BannedUntil != nil
}

// Clone returns a deep copy; nil stays nil.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	c.BannedUntil = cloneTime(a.BannedUntil)
	return &c
}

// SessionEventKind names the cause of a session change.
type SessionEventKind string

const (
	EventInitialSession SessionEventKind = "initial_session"
	EventSignedIn       SessionEventKind = "signed_in"
	EventTokenRefreshed SessionEventKind = "token_refreshed"
	EventUserUpdated    SessionEventKind = "user_updated"
	EventSignedOut      SessionEventKind = "signed_out"
)

// SessionEvent is a push notification from the identity backend. Actor is
// the full replacement value; nil means there is no session anymore.
type SessionEvent struct {
	Kind       SessionEventKind `json:"kind"`
	UserID     string           `json:"user_id"`
	Actor      *Actor           `json:"actor,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
