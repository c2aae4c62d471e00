// Command console is the operator console for the account directory.
//
//	console [flags] register
//	console [flags] whoami
//	console [flags] users list
//	console [flags] users ban <id> [--until RFC3339]
//	console [flags] users unban <id>
//	console [flags] users promote <id>
//	console [flags] users set-role <id> <admin|user>
//	console [flags] watch
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/userdesk/admin-console/internal/client"
	"github.com/userdesk/admin-console/internal/console"
	"github.com/userdesk/admin-console/internal/core/domain"
	"github.com/userdesk/admin-console/internal/directory"
	redisdb "github.com/userdesk/admin-console/internal/infrastructure/db/redis"
	"github.com/userdesk/admin-console/internal/pkg/config"
	"github.com/userdesk/admin-console/internal/session"
	"github.com/userdesk/admin-console/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConsole()

	flags := pflag.NewFlagSet("console", pflag.ContinueOnError)
	apiURL := flags.String("api-url", cfg.APIURL, "base URL of the admin console API")
	email := flags.String("email", cfg.Email, "operator email")
	password := flags.String("password", cfg.Password, "operator password")
	timeout := flags.Duration("timeout", cfg.Timeout, "timeout of each API call")
	redisAddr := flags.String("redis-addr", cfg.Redis.Addr, "Redis address for live session notifications; empty disables them")
	logLevel := flags.String("log-level", cfg.LogLevel, "log level: trace, debug, info, warn, error")
	until := flags.String("until", "", "ban end as RFC 3339 timestamp (users ban only)")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: console [flags] register | whoami | users list|ban|unban|promote|set-role ... | watch")
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	log := logger.Init(logger.Options{
		Level:   *logLevel,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "admin-console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPI(*apiURL, *timeout, logger.For("api"))

	var remote client.RemoteEvents
	if *redisAddr != "" {
		bus, err := redisdb.Open(ctx, redisdb.Config{
			Addr:           *redisAddr,
			DB:             cfg.Redis.DB,
			SessionChannel: cfg.Redis.SessionChannel,
		})
		if err != nil {
			log.Warn().Err(err).Msg("live session notifications disabled")
		} else {
			defer func() { _ = bus.Close() }()
			remote = bus.Subscriber(logger.For("session-events"))
		}
	}
	identity := client.NewIdentity(api, remote, logger.For("identity"))

	args := flags.Args()
	if len(args) > 0 && args[0] == "register" {
		if err := register(ctx, api, os.Stdout, args[1:], *email, *password); err != nil {
			return fail(log, err)
		}
		return 0
	}

	if *email != "" {
		if _, err := identity.SignIn(ctx, *email, *password); err != nil {
			return fail(log, err)
		}
	}

	machine := session.NewMachine(identity, logger.For("session"))
	ctx = session.WithMachine(ctx, machine)
	gate := session.NewGate(func() {
		fmt.Fprintln(os.Stderr, "not signed in: pass --email and --password or set CONSOLE_EMAIL and CONSOLE_PASSWORD")
	})
	unbind := gate.Bind(machine)
	defer unbind()

	controller := directory.NewController(api, machine, logger.For("directory"), directory.WithCallTimeout(*timeout))
	defer controller.Close()
	if preloads(args) {
		stopLoad := controller.AutoLoad(ctx, machine)
		defer stopLoad()
	}

	if err := machine.Start(ctx); err != nil {
		return fail(log, err)
	}
	defer machine.Close()

	app := &console.App{
		Machine:   session.FromContext(ctx),
		Gate:      gate,
		Directory: controller,
		Out:       os.Stdout,
		Log:       log,
	}

	if err := dispatch(ctx, app, args, *until); err != nil {
		return fail(log, err)
	}
	return 0
}

// registrar creates accounts; *client.API satisfies it.
type registrar interface {
	Register(ctx context.Context, email, password string) (*domain.Actor, error)
}

// register creates an account without signing in. The server decides the
// role; only the bootstrap account starts as admin.
func register(ctx context.Context, r registrar, out io.Writer, args []string, email, password string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: register takes no arguments", domain.ErrValidation)
	}
	if email == "" || password == "" {
		return fmt.Errorf("%w: register needs --email and --password", domain.ErrValidation)
	}
	actor, err := r.Register(ctx, email, password)
	if err != nil {
		return err
	}
	return console.RenderState(out, session.SessionState{Actor: actor})
}

// preloads reports whether the command keeps the directory cache loaded for
// the admin: watch and the mutations. users list fetches on its own.
func preloads(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "watch":
		return true
	case "users":
		return len(args) > 1 && args[1] != "list"
	}
	return false
}

func dispatch(ctx context.Context, app *console.App, args []string, until string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", domain.ErrValidation)
	}
	switch args[0] {
	case "whoami":
		return app.WhoAmI(ctx)
	case "watch":
		return app.Watch(ctx)
	case "users":
		return dispatchUsers(ctx, app, args[1:], until)
	default:
		return fmt.Errorf("%w: unknown command %q", domain.ErrValidation, args[0])
	}
}

func dispatchUsers(ctx context.Context, app *console.App, args []string, until string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: users needs a subcommand", domain.ErrValidation)
	}
	need := func(n int) error {
		if len(args) != n+1 {
			return fmt.Errorf("%w: users %s takes %d argument(s)", domain.ErrValidation, args[0], n)
		}
		return nil
	}

	switch args[0] {
	case "list":
		return app.ListUsers(ctx)
	case "ban":
		if err := need(1); err != nil {
			return err
		}
		var end *time.Time
		if until != "" {
			t, err := time.Parse(time.RFC3339, until)
			if err != nil {
				return fmt.Errorf("%w: --until must be RFC 3339", domain.ErrValidation)
			}
			end = &t
		}
		return app.Ban(ctx, args[1], end)
	case "unban":
		if err := need(1); err != nil {
			return err
		}
		return app.Unban(ctx, args[1])
	case "promote":
		if err := need(1); err != nil {
			return err
		}
		return app.Promote(ctx, args[1])
	case "set-role":
		if err := need(2); err != nil {
			return err
		}
		return app.SetRole(ctx, args[1], args[2])
	default:
		return fmt.Errorf("%w: unknown users subcommand %q", domain.ErrValidation, args[0])
	}
}

func fail(log zerolog.Logger, err error) int {
	switch {
	case errors.Is(err, console.ErrSignInRequired):
		return 3
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrAuthenticationMissing):
		log.Error().Err(err).Msg("authentication failed")
		return 3
	case errors.Is(err, domain.ErrAuthorizationDenied):
		log.Error().Err(err).Msg("not allowed")
		return 4
	case errors.Is(err, domain.ErrValidation):
		log.Error().Err(err).Msg("invalid usage")
		return 2
	default:
		log.Error().Err(err).Msg("command failed")
		return 1
	}
}
