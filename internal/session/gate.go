package session

import (
	"sync"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// Decision is what the console should do for a given session state.
type Decision int

const (
	// DecisionWait shows a neutral placeholder; nothing is decided yet.
	DecisionWait Decision = iota
	// DecisionRedirect sends the operator to sign in.
	DecisionRedirect
	// DecisionRender shows the protected content.
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Gate only checks whether a session exists. Banned actors pass; bans are
// enforced per action by RequirePrivileged and by the server.
type Gate struct {
	onRedirect func()

	mu         sync.Mutex
	redirected bool
	last       Decision
}

// NewGate returns a gate that calls onRedirect once per anonymous episode.
func NewGate(onRedirect func()) *Gate {
	return &Gate{onRedirect: onRedirect}
}

func (g *Gate) Evaluate(s SessionState) Decision {
	g.mu.Lock()
	var d Decision
	fire := false
	switch {
	case s.IsLoading:
		d = DecisionWait
	case s.Actor == nil:
		d = DecisionRedirect
		fire = !g.redirected
		g.redirected = true
	default:
		d = DecisionRender
		g.redirected = false
	}
	g.last = d
	g.mu.Unlock()

	if fire && g.onRedirect != nil {
		g.onRedirect()
	}
	return d
}

// Last returns the most recent decision.
func (g *Gate) Last() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Bind evaluates the machine's current state and every later transition.
func (g *Gate) Bind(m *Machine) (unbind func()) {
	return m.Watch(func(s SessionState) { g.Evaluate(s) })
}

// RequireAdmin is the client-side precheck for admin-only actions.
func RequireAdmin(s SessionState) error {
	if s.Actor == nil {
		return domain.ErrAuthenticationMissing
	}
	if !s.Actor.IsAdmin() {
		return domain.ErrAuthorizationDenied
	}
	return nil
}

// RequirePrivileged is RequireAdmin that also refuses banned actors.
func RequirePrivileged(s SessionState) error {
	if err := RequireAdmin(s); err != nil {
		return err
	}
	if s.Actor.IsBanned() {
		return domain.ErrAuthorizationDenied
	}
	return nil
}
