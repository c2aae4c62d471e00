package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/admin-console/internal/api/middleware"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

type stubAccountService struct {
	listFn   func(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error)
	updateFn func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error)
}

func (s *stubAccountService) ListAccounts(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error) {
	return s.listFn(ctx, caller)
}

func (s *stubAccountService) UpdateAccount(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
	return s.updateFn(ctx, caller, in)
}

var admin = &domain.Actor{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}

func TestAccountHandler_List(t *testing.T) {
	e := newEcho()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubAccountService{
		listFn: func(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error) {
			assert.Equal(t, "admin", caller.ID)
			return []domain.AccountRecord{{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser, CreatedAt: created}}, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), rec)
	c.Set(middleware.CtxActor, admin)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "u1", resp.Data[0]["id"])
	assert.Equal(t, false, resp.Data[0]["is_banned"])
	assert.NotContains(t, resp.Data[0], "banned_until")
}

func TestAccountHandler_List_EmptyIsArray(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		listFn: func(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error) {
			return nil, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), rec)
	c.Set(middleware.CtxActor, admin)

	require.NoError(t, h.List(c))
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestAccountHandler_List_PropagatesDenial(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		listFn: func(ctx context.Context, caller *domain.Actor) ([]domain.AccountRecord, error) {
			return nil, domain.ErrAuthorizationDenied
		},
	}
	h := NewAccountHandler(stub)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), httptest.NewRecorder())
	c.Set(middleware.CtxActor, admin)

	assert.ErrorIs(t, h.List(c), domain.ErrAuthorizationDenied)
}

func TestAccountHandler_Update_Ban(t *testing.T) {
	e := newEcho()
	until := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubAccountService{
		updateFn: func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
			assert.Equal(t, "u1", in.AccountID)
			require.NotNil(t, in.Banned)
			assert.True(t, *in.Banned)
			assert.Nil(t, in.Role)
			assert.Nil(t, in.BannedUntil)
			return domain.AccountRecord{ID: "u1", Email: "u1@example.com", Role: domain.RoleUser, IsBanned: true, BannedUntil: &until}, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users/update", `{"accountId":"u1","banned":true}`), rec)
	c.Set(middleware.CtxActor, admin)

	require.NoError(t, h.Update(c))
	assert.JSONEq(t, `{"data":{"success":true,"user":{"id":"u1","email":"u1@example.com","role":"user","is_banned":true,"banned_until":"2027-03-01T00:00:00Z"}}}`, rec.Body.String())
}

func TestAccountHandler_Update_RoleAndExplicitUntil(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		updateFn: func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
			require.NotNil(t, in.Role)
			assert.Equal(t, domain.RoleAdmin, *in.Role)
			require.NotNil(t, in.BannedUntil)
			assert.Equal(t, 2030, in.BannedUntil.Year())
			return domain.AccountRecord{ID: in.AccountID, Role: domain.RoleAdmin}, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users/update", `{"accountId":"u1","role":"admin","banned":true,"bannedUntil":"2030-01-01T00:00:00Z"}`), rec)
	c.Set(middleware.CtxActor, admin)

	require.NoError(t, h.Update(c))
	assert.Contains(t, rec.Body.String(), `"banned_until":null`)
}

func TestAccountHandler_Update_EmptyRoleIsIgnored(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		updateFn: func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
			assert.Nil(t, in.Role)
			require.NotNil(t, in.Banned)
			assert.False(t, *in.Banned)
			return domain.AccountRecord{ID: in.AccountID, Role: domain.RoleUser}, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users/update", `{"accountId":"u1","role":"","banned":false}`), rec)
	c.Set(middleware.CtxActor, admin)

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestAccountHandler_Update_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing account id", `{"banned":true}`},
		{"unknown role", `{"accountId":"u1","role":"owner"}`},
		{"bad timestamp", `{"accountId":"u1","banned":true,"bannedUntil":"next week"}`},
		{"malformed json", `{"accountId":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			called := false
			stub := &stubAccountService{
				updateFn: func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
					called = true
					return domain.AccountRecord{}, nil
				},
			}
			h := NewAccountHandler(stub)

			c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users/update", tc.body), httptest.NewRecorder())
			c.Set(middleware.CtxActor, admin)

			assert.ErrorIs(t, h.Update(c), domain.ErrValidation)
			assert.False(t, called)
		})
	}
}

func TestAccountHandler_Update_NotFound(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		updateFn: func(ctx context.Context, caller *domain.Actor, in ports.UpdateAccountInput) (domain.AccountRecord, error) {
			return domain.AccountRecord{}, domain.ErrAccountNotFound
		},
	}
	h := NewAccountHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users/update", `{"accountId":"ghost","banned":false}`), httptest.NewRecorder())
	c.Set(middleware.CtxActor, admin)

	assert.ErrorIs(t, h.Update(c), domain.ErrAccountNotFound)
}

func TestAccountHandler_RequiresActor(t *testing.T) {
	e := newEcho()
	h := NewAccountHandler(&stubAccountService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), httptest.NewRecorder())

	err := h.List(c)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrAuthorizationDenied))
}
