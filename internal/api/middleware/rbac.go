package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/core/domain"
)

// RBAC enforces role-based access control on the resolved actor. Banned
// actors are refused whatever their role.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := c.Get(CtxActor).(*domain.Actor)
			if actor == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if _, ok := allowed[actor.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			if actor.IsBanned() {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "account banned"})
			}
			return next(c)
		}
	}
}
