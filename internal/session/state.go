package session

import "github.com/userdesk/admin-console/internal/core/domain"

// SessionState is what the console knows about the current session.
// IsLoading is true only until the initial session query resolves.
type SessionState struct {
	Actor     *domain.Actor
	IsLoading bool
}

func (s SessionState) IsAdmin() bool { return s.Actor.IsAdmin() }

func (s SessionState) IsBanned() bool { return s.Actor.IsBanned() }

// Authenticated reports whether the state is resolved with an actor.
func (s SessionState) Authenticated() bool { return !s.IsLoading && s.Actor != nil }

func (s SessionState) clone() SessionState {
	s.Actor = s.Actor.Clone()
	return s
}
