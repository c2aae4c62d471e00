package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/userdesk/admin-console/internal/api/handler"
	"github.com/userdesk/admin-console/internal/api/middleware"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/core/ports"

	_ "github.com/userdesk/admin-console/docs"
)

// Deps are the collaborators the HTTP layer needs. cmd/api builds them from
// Mongo and Redis; tests pass stubs.
type Deps struct {
	AuthService    ports.AuthService
	AccountService ports.AccountService
	Denylist       ports.TokenDenylist
	JWTSecret      string
	Logger         zerolog.Logger
	// Pingers back the readiness check, keyed by dependency name.
	Pingers map[string]handler.Pinger
	// Registerer receives the HTTP request metrics. Nil means the default
	// registry, which /metrics serves.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	// CORS runs before routing so preflight requests never reach a handler.
	e.Pre(middleware.CORS())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: deps.Registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	accountHandler := handler.NewAccountHandler(deps.AccountService)
	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Denylist)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	session := e.Group("/auth", authMiddleware)
	session.POST("/refresh", authHandler.Refresh)
	session.POST("/logout", authHandler.Logout)
	session.GET("/session", authHandler.Session)

	// --- Admin routes ---
	admin := e.Group("/admin",
		authMiddleware,
		middleware.Actor(deps.AuthService),
		middleware.RBAC(domain.RoleAdmin),
	)
	admin.GET("/users", accountHandler.List)
	admin.POST("/users/update", accountHandler.Update)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Pingers)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
