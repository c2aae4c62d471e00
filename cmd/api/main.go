// Command api runs the identity backend and the admin endpoints.
//
// @title                      Admin Console API
// @version                    1.0
// @description                Identity backend and privileged account directory for the admin console.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userdesk/admin-console/internal/api"
	"github.com/userdesk/admin-console/internal/api/handler"
	"github.com/userdesk/admin-console/internal/core/service"
	mongodb "github.com/userdesk/admin-console/internal/infrastructure/db/mongo"
	redisdb "github.com/userdesk/admin-console/internal/infrastructure/db/redis"
	"github.com/userdesk/admin-console/internal/infrastructure/queue"
	"github.com/userdesk/admin-console/internal/pkg/config"
	"github.com/userdesk/admin-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "admin-console-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongodb.Open(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo unavailable")
	}
	defer func() { _ = store.Close(context.Background()) }()

	bus, err := redisdb.Open(ctx, redisdb.Config{
		Addr:           cfg.Redis.Addr,
		DB:             cfg.Redis.DB,
		SessionChannel: cfg.Redis.SessionChannel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer func() { _ = bus.Close() }()

	accounts := store.Accounts

	dispatcher := queue.NewDispatcher(
		cfg.DispatchWorkers,
		bus.Publisher(),
		logger.For("dispatcher"),
	)
	dispatcher.Start(ctx)

	denylist := bus.Denylist()
	authService := service.NewAuthService(accounts, denylist, dispatcher, cfg.JWTSecret, cfg.TokenTTL, logger.For("auth"))
	accountService := service.NewAccountService(accounts, dispatcher, logger.For("accounts"))

	if cfg.Bootstrap.Email != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password); err != nil {
			log.Fatal().Err(err).Str("email", cfg.Bootstrap.Email).Msg("bootstrap admin")
		}
		log.Info().Str("email", cfg.Bootstrap.Email).Msg("bootstrap admin ensured")
	}

	e := api.NewRouter(api.Deps{
		AuthService:    authService,
		AccountService: accountService,
		Denylist:       denylist,
		JWTSecret:      cfg.JWTSecret,
		Logger:         logger.For("http"),
		Pingers: map[string]handler.Pinger{
			"mongo": store.Ping,
			"redis": bus.Ping,
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
