package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/api/middleware"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// ctxClaims returns the token claims injected by the Auth middleware.
// An empty subject means the middleware did not run.
func ctxClaims(c echo.Context) (ports.TokenClaims, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return ports.TokenClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	tokenID, _ := c.Get(middleware.CtxTokenID).(string)
	return ports.TokenClaims{UserID: userID, TokenID: tokenID}, nil
}

// ctxActor returns the actor resolved by the Actor middleware.
func ctxActor(c echo.Context) (*domain.Actor, error) {
	actor, _ := c.Get(middleware.CtxActor).(*domain.Actor)
	if actor == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}
