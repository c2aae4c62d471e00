package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// ActorResolver loads the authoritative actor for a token subject.
type ActorResolver interface {
	CurrentActor(ctx context.Context, userID string) (*domain.Actor, error)
}

// Actor resolves the account behind the token on every request, so role and
// ban changes take effect without waiting for the token to expire. Must run
// after Auth.
func Actor(resolver ActorResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			actor, err := resolver.CurrentActor(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrAuthenticationMissing) {
					return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
				}
				return err
			}

			c.Set(CtxActor, actor)
			return next(c)
		}
	}
}
