package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// CORS answers preflight requests and allows any origin. Authorization is
// enforced by the bearer check, not by the browser's origin policy.
func CORS() echo.MiddlewareFunc {
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodPost, http.MethodGet, http.MethodOptions,
			http.MethodPut, http.MethodDelete, http.MethodPatch,
		},
		AllowHeaders:     []string{"authorization", "x-client-info", "apikey", "content-type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}
