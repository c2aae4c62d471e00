// Package console implements the operator commands of the admin console on
// top of the session machine, the gate and the directory controller.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/directory"
	"github.com/userdesk/admin-console/internal/session"
)

var ErrSignInRequired = errors.New("sign-in required")

// App runs one console command against a started session machine whose gate
// is already bound.
type App struct {
	Machine   *session.Machine
	Gate      *session.Gate
	Directory *directory.Controller
	Out       io.Writer
	Log       zerolog.Logger
}

// Ready waits for the session to resolve and returns it. An anonymous
// session yields ErrSignInRequired.
func (a *App) Ready(ctx context.Context) (session.SessionState, error) {
	resolved := make(chan session.SessionState, 1)
	stop := a.Machine.Watch(func(s session.SessionState) {
		if s.IsLoading {
			return
		}
		select {
		case resolved <- s:
		default:
		}
	})
	defer stop()

	select {
	case <-ctx.Done():
		return session.SessionState{}, ctx.Err()
	case s := <-resolved:
		if a.Gate.Evaluate(s) != session.DecisionRender {
			return s, ErrSignInRequired
		}
		return s, nil
	}
}

func (a *App) WhoAmI(ctx context.Context) error {
	s, err := a.Ready(ctx)
	if err != nil && !errors.Is(err, ErrSignInRequired) {
		return err
	}
	return RenderState(a.Out, s)
}

func (a *App) ListUsers(ctx context.Context) error {
	if _, err := a.Ready(ctx); err != nil {
		return err
	}
	records, err := a.Directory.ListAccounts(ctx)
	if err != nil {
		return err
	}
	return RenderAccounts(a.Out, records)
}

// Ban bans id until the given time, or for the server default when until is
// nil.
func (a *App) Ban(ctx context.Context, id string, until *time.Time) error {
	return a.mutate(ctx, func() (domain.AccountRecord, error) {
		return a.Directory.SetBanned(ctx, id, true, until)
	})
}

func (a *App) Unban(ctx context.Context, id string) error {
	return a.mutate(ctx, func() (domain.AccountRecord, error) {
		return a.Directory.SetBanned(ctx, id, false, nil)
	})
}

func (a *App) Promote(ctx context.Context, id string) error {
	return a.mutate(ctx, func() (domain.AccountRecord, error) {
		return a.Directory.Promote(ctx, id)
	})
}

func (a *App) SetRole(ctx context.Context, id, role string) error {
	r, ok := domain.ParseRole(role)
	if !ok {
		return fmt.Errorf("%w: role must be admin or user", domain.ErrValidation)
	}
	return a.mutate(ctx, func() (domain.AccountRecord, error) {
		return a.Directory.SetRole(ctx, id, r)
	})
}

// mutate refuses banned admins before any remote call is made.
func (a *App) mutate(ctx context.Context, call func() (domain.AccountRecord, error)) error {
	s, err := a.Ready(ctx)
	if err != nil {
		return err
	}
	if err := session.RequirePrivileged(s); err != nil {
		return err
	}
	rec, err := call()
	if err != nil {
		return err
	}
	return RenderAccount(a.Out, rec)
}

// Watch prints every session transition until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	stop := a.Machine.Watch(func(s session.SessionState) {
		if err := RenderState(a.Out, s); err != nil {
			a.Log.Warn().Err(err).Msg("render session state")
		}
	})
	defer stop()
	<-ctx.Done()
	return nil
}
