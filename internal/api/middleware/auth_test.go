package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/core/domain"
)

type stubDenylist struct {
	revoked map[string]bool
	err     error
}

func (d *stubDenylist) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	d.revoked[tokenID] = true
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.revoked[tokenID], nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string, deny *stubDenylist) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret", deny)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	signed := signToken(t, jwt.MapClaims{
		"sub":  "u1",
		"jti":  "jti-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth("secret", &stubDenylist{revoked: map[string]bool{}})
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get(CtxUserID) != "u1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(CtxTokenID) != "jti-1" {
			t.Fatalf("token_id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called, _ := runAuth(t, "", &stubDenylist{revoked: map[string]bool{}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec, called, _ := runAuth(t, "Token abc", &stubDenylist{revoked: map[string]bool{}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, called, _ := runAuth(t, "Bearer not-a-token", &stubDenylist{revoked: map[string]bool{}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	rec, called, _ := runAuth(t, "Bearer "+signed, &stubDenylist{revoked: map[string]bool{}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingSubject(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	rec, called, _ := runAuth(t, "Bearer "+signed, &stubDenylist{revoked: map[string]bool{}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u1", "jti": "gone", "exp": time.Now().Add(time.Hour).Unix()})
	rec, called, _ := runAuth(t, "Bearer "+signed, &stubDenylist{revoked: map[string]bool{"gone": true}})
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_DenylistUnavailable(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{"sub": "u1", "jti": "j", "exp": time.Now().Add(time.Hour).Unix()})
	_, called, err := runAuth(t, "Bearer "+signed, &stubDenylist{err: errors.New("redis down")})
	if called {
		t.Fatalf("should not reach next")
	}
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
