package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

const subscriberBuffer = 32

// RemoteEvents is the backend's session notification feed; the Redis
// subscriber implements it.
type RemoteEvents interface {
	Subscribe(ctx context.Context) (<-chan domain.SessionEvent, func(), error)
}

// Identity is the console's session source. Sign-in, sign-out and refresh
// done through it are announced to subscribers directly. Remote
// notifications about the signed-in account are forwarded as they arrive.
type Identity struct {
	api    *API
	remote RemoteEvents
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *domain.Actor
	subs    map[uint64]*subscription
	nextID  uint64
}

var _ ports.SessionSource = (*Identity)(nil)

type subscription struct {
	local chan domain.SessionEvent
	done  chan struct{}
}

// NewIdentity wraps api. remote may be nil, in which case only local changes
// are reported.
func NewIdentity(api *API, remote RemoteEvents, log zerolog.Logger) *Identity {
	return &Identity{
		api:    api,
		remote: remote,
		log:    log,
		now:    time.Now,
		subs:   make(map[uint64]*subscription),
	}
}

// CurrentSession asks the backend who the stored token belongs to. No token,
// or a token the backend no longer accepts, is a signed-out session.
func (i *Identity) CurrentSession(ctx context.Context) (*domain.Actor, error) {
	if i.api.Token() == "" {
		return nil, nil
	}
	actor, err := i.api.Session(ctx)
	if errors.Is(err, domain.ErrAuthenticationMissing) {
		i.api.SetToken("")
		i.setCurrent(nil)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	i.setCurrent(actor)
	return actor.Clone(), nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*domain.Actor, error) {
	actor, err := i.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	i.setCurrent(actor)
	i.emit(domain.EventSignedIn, actor)
	return actor.Clone(), nil
}

// SignOut always ends the local session; a failed revoke is returned after
// subscribers have been told.
func (i *Identity) SignOut(ctx context.Context) error {
	err := i.api.Logout(ctx)
	if errors.Is(err, domain.ErrAuthenticationMissing) {
		err = nil
	}
	i.setCurrent(nil)
	i.emit(domain.EventSignedOut, nil)
	return err
}

func (i *Identity) Refresh(ctx context.Context) (*domain.Actor, error) {
	actor, err := i.api.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	i.setCurrent(actor)
	i.emit(domain.EventTokenRefreshed, actor)
	return actor.Clone(), nil
}

// Subscribe merges local changes with the remote feed into one ordered
// stream. A remote feed that cannot be opened is logged; local changes are
// still delivered.
func (i *Identity) Subscribe(ctx context.Context) (<-chan domain.SessionEvent, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	var remote <-chan domain.SessionEvent
	releaseRemote := func() {}
	if i.remote != nil {
		ch, release, err := i.remote.Subscribe(ctx)
		if err != nil {
			i.log.Warn().Err(err).Msg("remote session notifications unavailable")
		} else {
			remote, releaseRemote = ch, release
		}
	}

	sub := &subscription{
		local: make(chan domain.SessionEvent, subscriberBuffer),
		done:  make(chan struct{}),
	}
	i.mu.Lock()
	i.nextID++
	id := i.nextID
	i.subs[id] = sub
	i.mu.Unlock()

	out := make(chan domain.SessionEvent)
	go func() {
		defer close(out)
		defer releaseRemote()
		for {
			var ev domain.SessionEvent
			select {
			case <-ctx.Done():
				return
			case ev = <-sub.local:
			case remoteEv, ok := <-remote:
				if !ok {
					remote = nil
					continue
				}
				var forward bool
				ev, forward = i.accept(remoteEv)
				if !forward {
					continue
				}
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			i.mu.Lock()
			delete(i.subs, id)
			i.mu.Unlock()
			close(sub.done)
			cancel()
		})
	}
	return out, release, nil
}

// accept filters a remote notification to the signed-in account and applies
// it to the local session.
func (i *Identity) accept(ev domain.SessionEvent) (domain.SessionEvent, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current == nil || ev.UserID != i.current.ID {
		return ev, false
	}
	switch ev.Kind {
	case domain.EventSignedOut:
		i.current = nil
		i.api.SetToken("")
		ev.Actor = nil
	default:
		i.current = ev.Actor.Clone()
	}
	return ev, true
}

func (i *Identity) setCurrent(actor *domain.Actor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.current = actor.Clone()
}

func (i *Identity) emit(kind domain.SessionEventKind, actor *domain.Actor) {
	ev := domain.SessionEvent{Kind: kind, Actor: actor.Clone(), OccurredAt: i.now().UTC()}
	if actor != nil {
		ev.UserID = actor.ID
	}

	i.mu.Lock()
	subs := make([]*subscription, 0, len(i.subs))
	for _, s := range i.subs {
		subs = append(subs, s)
	}
	i.mu.Unlock()

	for _, s := range subs {
		select {
		case s.local <- ev:
		case <-s.done:
		}
	}
}
