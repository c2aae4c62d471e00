// Package client talks to the admin console backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// API is the HTTP client of the identity and admin endpoints. It carries the
// bearer token of the signed-in operator.
type API struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu    sync.RWMutex
	token string
}

var _ ports.AdminAPI = (*API)(nil)

func NewAPI(baseURL string, timeout time.Duration, log zerolog.Logger) *API {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

type authResponse struct {
	Token string        `json:"token"`
	User  *domain.Actor `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Register(ctx context.Context, email, password string) (*domain.Actor, error) {
	var resp authResponse
	if err := a.do(ctx, http.MethodPost, "/auth/register", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (a *API) Login(ctx context.Context, email, password string) (*domain.Actor, error) {
	var resp authResponse
	err := a.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &resp)
	if errors.Is(err, domain.ErrAuthenticationMissing) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, err
	}
	a.SetToken(resp.Token)
	return resp.User, nil
}

func (a *API) Refresh(ctx context.Context) (*domain.Actor, error) {
	var resp authResponse
	if err := a.do(ctx, http.MethodPost, "/auth/refresh", nil, &resp); err != nil {
		return nil, err
	}
	a.SetToken(resp.Token)
	return resp.User, nil
}

// Logout revokes the token server-side and forgets it locally, even when the
// server call fails.
func (a *API) Logout(ctx context.Context) error {
	defer a.SetToken("")
	return a.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (a *API) Session(ctx context.Context) (*domain.Actor, error) {
	var resp authResponse
	if err := a.do(ctx, http.MethodGet, "/auth/session", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (a *API) ListAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	var resp struct {
		Data []domain.AccountRecord `json:"data"`
	}
	if err := a.do(ctx, http.MethodGet, "/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (a *API) UpdateAccount(ctx context.Context, req ports.UpdateAccountRequest) (domain.AccountRecord, error) {
	var resp struct {
		Data struct {
			Success bool                 `json:"success"`
			User    domain.AccountRecord `json:"user"`
		} `json:"data"`
	}
	if err := a.do(ctx, http.MethodPost, "/admin/users/update", req, &resp); err != nil {
		return domain.AccountRecord{}, err
	}
	if !resp.Data.Success {
		return domain.AccountRecord{}, fmt.Errorf("%w: update not acknowledged", domain.ErrBackendUnavailable)
	}
	return resp.Data.User, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	a.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api call")

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	return nil
}

// statusError maps an error response onto the domain error taxonomy, keeping
// the server's message.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = domain.ErrAuthenticationMissing
	case resp.StatusCode == http.StatusForbidden:
		kind = domain.ErrAuthorizationDenied
	case resp.StatusCode == http.StatusBadRequest:
		kind = domain.ErrValidation
	case resp.StatusCode == http.StatusNotFound:
		kind = domain.ErrAccountNotFound
	case resp.StatusCode == http.StatusConflict:
		kind = domain.ErrAccountExists
	default:
		kind = domain.ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
