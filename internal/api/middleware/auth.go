package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID  = "user_id"
	CtxTokenID = "token_id"
	CtxActor   = "actor"
)

// Auth validates the bearer JWT, rejects revoked tokens and injects the
// token subject into context. Role and ban state are not read from the token.
func Auth(jwtSecret string, denylist ports.TokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			jti, _ := claims["jti"].(string)
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if jti != "" && denylist != nil {
				revoked, err := denylist.IsRevoked(c.Request().Context(), jti)
				if err != nil {
					return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			c.Set(CtxUserID, sub)
			c.Set(CtxTokenID, jti)

			return next(c)
		}
	}
}
