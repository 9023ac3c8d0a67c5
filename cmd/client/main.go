// Command client is the console client for the login service.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/iudanet/loginauth/internal/client/api"
	"github.com/iudanet/loginauth/internal/client/auth"
	clientcli "github.com/iudanet/loginauth/internal/client/cli"
	"github.com/iudanet/loginauth/internal/client/iocli"
	"github.com/iudanet/loginauth/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// globalOptions заполняются флагами корневой команды
type globalOptions struct {
	serverURL string
	dbPath    string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(iocli.NewStdio(), os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp собирает дерево команд
func newApp(console iocli.IO, logOut io.Writer) *cli.Command {
	opts := &globalOptions{}

	passwordFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Password (not recommended, use " + clientcli.PasswordEnvVar + " or --password-file)",
			},
			&cli.StringFlag{
				Name:  "password-file",
				Usage: "Path to file containing the password",
			},
		}
	}

	passwords := func(cmd *cli.Command) clientcli.Passwords {
		return clientcli.Passwords{
			FromFile: cmd.String("password-file"),
			FromArgs: cmd.String("password"),
		}
	}

	run := func(ctx context.Context, fn func(context.Context, *clientcli.Cli) error) error {
		return withCli(ctx, opts, console, logOut, fn)
	}

	return &cli.Command{
		Name:    "loginauth",
		Usage:   "LoginAuth console client",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Value:       "http://localhost:8080",
				Usage:       "Server URL",
				Sources:     cli.EnvVars("LOGINAUTH_SERVER"),
				Destination: &opts.serverURL,
			},
			&cli.StringFlag{
				Name:        "db",
				Value:       "loginauth-client.db",
				Usage:       "Path to local session database",
				Sources:     cli.EnvVars("LOGINAUTH_DB"),
				Destination: &opts.dbPath,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Enable debug logging",
				Destination: &opts.verbose,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Register a new account",
				Flags: append(passwordFlags(),
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, func(ctx context.Context, c *clientcli.Cli) error {
						return c.RunRegister(ctx, clientcli.RegisterOptions{
							Email:     cmd.String("email"),
							FirstName: cmd.String("first-name"),
							LastName:  cmd.String("last-name"),
							Passwords: passwords(cmd),
						})
					})
				},
			},
			{
				Name:  "login",
				Usage: "Log in and store the session locally",
				Flags: passwordFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, func(ctx context.Context, c *clientcli.Cli) error {
						return c.RunLogin(ctx, cmd.String("email"), passwords(cmd))
					})
				},
			},
			{
				Name:  "logout",
				Usage: "Remove the local session",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, func(ctx context.Context, c *clientcli.Cli) error {
						return c.RunLogout(ctx)
					})
				},
			},
			{
				Name:  "status",
				Usage: "Show the local session without contacting the server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, func(ctx context.Context, c *clientcli.Cli) error {
						return c.RunStatus(ctx)
					})
				},
			},
			{
				Name:  "whoami",
				Usage: "Ask the server who the stored token belongs to",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, func(ctx context.Context, c *clientcli.Cli) error {
						return c.RunWhoAmI(ctx)
					})
				},
			},
		},
	}
}

// withCli открывает локальное хранилище на время одной команды
func withCli(ctx context.Context, opts *globalOptions, console iocli.IO, logOut io.Writer,
	fn func(context.Context, *clientcli.Cli) error) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := boltdb.New(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	apiClient := api.NewClient(opts.serverURL)
	authService := auth.NewService(apiClient, store, logger)

	return fn(ctx, clientcli.New(console, authService))
}
