// Package session owns the console's single view of who is signed in and the
// gate that decides what the console may show for it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

var (
	ErrAlreadyStarted = errors.New("session: machine already started")
	ErrClosed         = errors.New("session: machine closed")
)

type listener struct {
	id uint64
	fn func(SessionState)
}

// Machine tracks the session of the running console. It starts in the
// initializing state, resolves once from a session query and then follows
// the backend's session notifications in arrival order.
//
// Listeners run synchronously on the machine's loop goroutine. They must not
// call Close or Watch.
type Machine struct {
	source ports.SessionSource
	log    zerolog.Logger

	// notifyMu serialises transitions with Watch replays.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     SessionState
	listeners []listener
	nextID    uint64
	started   bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewMachine(source ports.SessionSource, log zerolog.Logger) *Machine {
	return &Machine{
		source: source,
		log:    log,
		state:  SessionState{IsLoading: true},
	}
}

// Start subscribes to session notifications, then queries the current
// session once. A failed query resolves to anonymous; it is logged, not
// returned. Start does not wait for the query.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	events, unsubscribe, err := m.source.Subscribe(loopCtx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session notifications unavailable, following the initial query only")
		events, unsubscribe = nil, func() {}
	}

	go m.run(loopCtx, events, unsubscribe)
	return nil
}

func (m *Machine) run(ctx context.Context, events <-chan domain.SessionEvent, unsubscribe func()) {
	defer close(m.done)
	defer unsubscribe()

	actor, err := m.source.CurrentSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.log.Warn().Err(err).Msg("initial session query failed, treating as signed out")
		actor = nil
	}
	m.apply(domain.EventInitialSession, actor)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.apply(ev.Kind, ev.Actor)
		}
	}
}

// apply replaces the actor wholesale and notifies listeners.
func (m *Machine) apply(kind domain.SessionEventKind, actor *domain.Actor) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = SessionState{Actor: actor.Clone()}
	state := m.state.clone()
	fns := make([]func(SessionState), len(m.listeners))
	for i, l := range m.listeners {
		fns[i] = l.fn
	}
	m.mu.Unlock()

	ev := m.log.Debug().Str("kind", string(kind))
	if actor != nil {
		ev = ev.Str("actor_id", actor.ID).Str("role", string(actor.Role)).Bool("banned", actor.IsBanned())
	}
	ev.Msg("session transition")

	for _, fn := range fns {
		fn(state.clone())
	}
}

// State returns a copy of the current state.
func (m *Machine) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers fn for every future transition, in registration order.
func (m *Machine) Subscribe(fn func(SessionState)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { m.remove(id) })
	}
}

// Watch is Subscribe plus an immediate call with the current state. No
// transition can slip between the replay and the registration.
func (m *Machine) Watch(fn func(SessionState)) (unsubscribe func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	unsubscribe = m.Subscribe(fn)
	fn(m.State())
	return unsubscribe
}

func (m *Machine) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Close releases the notification subscription and waits for the loop to
// exit. No transition or listener call happens after Close returns.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cancel, done := m.cancel, m.done
	m.listeners = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

type ctxKey struct{}

// WithMachine scopes m to ctx for the lifetime of the console.
func WithMachine(ctx context.Context, m *Machine) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the machine scoped by WithMachine. It panics when
// called outside that scope.
func FromContext(ctx context.Context) *Machine {
	m, ok := ctx.Value(ctxKey{}).(*Machine)
	if !ok || m == nil {
		panic("session: FromContext called outside a session machine scope")
	}
	return m
}
