// Package directory keeps the console's copy of the account directory in
// step with the admin endpoints.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
	"github.com/userdesk/admin-console/internal/session"
)

var ErrClosed = errors.New("directory: controller closed")

// StateReader exposes the current session; *session.Machine satisfies it.
type StateReader interface {
	State() session.SessionState
}

type Option func(*Controller)

// WithCallTimeout bounds every remote call. Zero means no bound beyond the
// caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// Controller owns the local account cache. The cache changes only after a
// remote call succeeds, and only with what the server echoed back.
//
// Mutations on the same account are not serialised: the last response to
// arrive wins.
type Controller struct {
	api     ports.AdminAPI
	state   StateReader
	log     zerolog.Logger
	timeout time.Duration

	mu         sync.Mutex
	accounts   []domain.AccountRecord
	loaded     bool
	closed     bool
	autoLoaded bool
}

func NewController(api ports.AdminAPI, state StateReader, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{api: api, state: state, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// ListAccounts fetches the whole directory. On failure, including a failed
// admin precheck, the cache is emptied and the error returned; there is no
// retry.
func (c *Controller) ListAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	if err := session.RequireAdmin(c.state.State()); err != nil {
		c.mu.Lock()
		if !c.closed {
			c.accounts = nil
			c.loaded = false
		}
		c.mu.Unlock()
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	records, err := c.api.ListAccounts(callCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err != nil {
		c.accounts = nil
		c.loaded = false
		c.log.Warn().Err(err).Msg("list accounts failed")
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	c.accounts = make([]domain.AccountRecord, len(records))
	for i, r := range records {
		c.accounts[i] = r.Clone()
	}
	c.loaded = true
	c.log.Debug().Int("count", len(records)).Msg("accounts loaded")
	return cloneRecords(c.accounts), nil
}

// SetBanned bans or unbans an account. A ban without until lets the server
// pick its default end, computed anew on every call.
func (c *Controller) SetBanned(ctx context.Context, accountID string, banned bool, until *time.Time) (domain.AccountRecord, error) {
	req := ports.UpdateAccountRequest{AccountID: accountID, Banned: &banned}
	if banned && until != nil {
		u := *until
		req.BannedUntil = &u
	}

	rec, err := c.update(ctx, req)
	if err != nil {
		return domain.AccountRecord{}, err
	}

	c.apply(accountID, func(r *domain.AccountRecord) {
		r.IsBanned = rec.IsBanned
		r.BannedUntil = rec.Clone().BannedUntil
	})
	return rec, nil
}

// SetRole changes the role of an account. Admins may demote themselves.
func (c *Controller) SetRole(ctx context.Context, accountID string, role domain.Role) (domain.AccountRecord, error) {
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.AccountRecord{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	rec, err := c.update(ctx, ports.UpdateAccountRequest{AccountID: accountID, Role: &role})
	if err != nil {
		return domain.AccountRecord{}, err
	}

	c.apply(accountID, func(r *domain.AccountRecord) { r.Role = rec.Role })
	return rec, nil
}

// Promote grants the admin role.
func (c *Controller) Promote(ctx context.Context, accountID string) (domain.AccountRecord, error) {
	return c.SetRole(ctx, accountID, domain.RoleAdmin)
}

func (c *Controller) update(ctx context.Context, req ports.UpdateAccountRequest) (domain.AccountRecord, error) {
	if req.AccountID == "" {
		return domain.AccountRecord{}, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	if err := session.RequirePrivileged(c.state.State()); err != nil {
		return domain.AccountRecord{}, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	rec, err := c.api.UpdateAccount(callCtx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("account_id", req.AccountID).Msg("update account failed")
		return domain.AccountRecord{}, fmt.Errorf("update account %s: %w", req.AccountID, err)
	}
	return rec, nil
}

// apply patches the cached record in place. Results arriving after Close
// and accounts missing from the cache are ignored.
func (c *Controller) apply(accountID string, patch func(*domain.AccountRecord)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for i := range c.accounts {
		if c.accounts[i].ID == accountID {
			patch(&c.accounts[i])
			return
		}
	}
}

// AutoLoad lists the directory once, the first time the session is an admin.
func (c *Controller) AutoLoad(ctx context.Context, m *session.Machine) (stop func()) {
	return m.Watch(func(s session.SessionState) {
		if !s.IsAdmin() {
			return
		}
		c.mu.Lock()
		if c.autoLoaded || c.closed {
			c.mu.Unlock()
			return
		}
		c.autoLoaded = true
		c.mu.Unlock()

		// Off the session loop: listeners must not block on the network.
		go func() {
			if _, err := c.ListAccounts(ctx); err != nil && !errors.Is(err, ErrClosed) {
				c.log.Error().Err(err).Msg("initial account load failed")
			}
		}()
	})
}

// Accounts returns a copy of the cache.
func (c *Controller) Accounts() []domain.AccountRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRecords(c.accounts)
}

// Loaded reports whether the last list call succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Close detaches the controller; in-flight results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func cloneRecords(in []domain.AccountRecord) []domain.AccountRecord {
	if in == nil {
		return nil
	}
	out := make([]domain.AccountRecord, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
