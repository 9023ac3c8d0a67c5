package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/loginauth/internal/config"
	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/metrics"
	"github.com/iudanet/loginauth/internal/server"
	"github.com/iudanet/loginauth/internal/server/auth"
	"github.com/iudanet/loginauth/internal/server/handlers"
	"github.com/iudanet/loginauth/internal/server/jwt"
	"github.com/iudanet/loginauth/internal/server/middleware"
	"github.com/iudanet/loginauth/internal/server/storage"
	"github.com/iudanet/loginauth/internal/server/storage/memory"
	"github.com/iudanet/loginauth/internal/server/storage/postgres"
	"github.com/iudanet/loginauth/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	generateSecret := flag.Bool("generate-secret", false, "Print a random JWT_SECRET and exit")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *generateSecret {
		secret, err := crypto.GenerateSecretBase64()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	hasher, err := crypto.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	store, pinger, closeStore, err := openStore(ctx, cfg, hasher)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		provider *metrics.Provider
		bm       metrics.BusinessMetrics = metrics.NoOp{}
	)
	if cfg.MetricsEnabled {
		provider, err = metrics.NewProvider(cfg.MetricsNamespace)
		if err != nil {
			return err
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()

		bm, err = metrics.NewBusinessMetrics(provider.MeterProvider(), cfg.MetricsNamespace)
		if err != nil {
			return err
		}
	}

	signing := cfg.SigningConfig()
	svc := auth.NewService(store, jwt.NewIssuer(signing), logger, auth.WithMetrics(bm), auth.WithDecoyHasher(hasher))

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled() {
		// Validate уже проверил список
		proxies, _ := cfg.TrustedProxyPrefixes()
		limiter = middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger,
			middleware.WithTrustedProxies(proxies...))
	}

	router := server.NewRouter(server.Deps{
		Logger:          logger,
		Auth:            svc,
		Validator:       jwt.NewValidator(signing),
		Pinger:          pinger,
		Metrics:         provider,
		BusinessMetrics: bm,
		RateLimiter:     limiter,
		Version:         Version,
	})
	srv := server.New(cfg.HTTPAddr, router, logger)

	logger.Info("LoginAuth server starting",
		slog.String("version", Version),
		slog.String("db_driver", cfg.DBDriver),
		slog.String("password_hasher", cfg.PasswordHasher),
		slog.Bool("metrics", cfg.MetricsEnabled),
		slog.Bool("rate_limit", limiter != nil))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("LoginAuth server stopped")
	return nil
}

// openStore открывает хранилище выбранного драйвера
func openStore(ctx context.Context, cfg *config.Config, hasher crypto.Hasher) (storage.CredentialStore, handlers.Pinger, func(), error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return memory.New(hasher), nil, func() {}, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DBDSN, hasher)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres storage: %w", err)
		}
		return s, s, func() { _ = s.Close() }, nil
	default:
		s, err := sqlite.New(ctx, cfg.DBDSN, hasher)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite storage: %w", err)
		}
		return s, s, func() { _ = s.Close() }, nil
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func printVersion() {
	fmt.Printf("LoginAuth Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
