// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/loginauth/internal/metrics"
	"github.com/iudanet/loginauth/internal/server/handlers"
	"github.com/iudanet/loginauth/internal/server/middleware"
)

// Deps содержит зависимости HTTP слоя
type Deps struct {
	Logger    *slog.Logger
	Auth      handlers.Authenticator
	Validator middleware.TokenValidator
	// Pinger проверяет хранилище в health check, может быть nil
	Pinger handlers.Pinger
	// Metrics включает /metrics и HTTP метрики, может быть nil
	Metrics         *metrics.Provider
	BusinessMetrics metrics.BusinessMetrics
	// RateLimiter ограничивает register и login, nil отключает ограничение
	RateLimiter *middleware.RateLimiter
	Version     string
}

// NewRouter builds the route table and the middleware chain.
func NewRouter(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Logger, d.Auth)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.Version, d.Pinger)

	limit := func(h http.Handler) http.Handler { return h }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware
	}
	requireToken := middleware.AuthMiddleware(d.Logger, d.Validator, d.BusinessMetrics)

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register", limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/auth/me", requireToken(http.HandlerFunc(authHandler.Me)))
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.HandleFunc("GET /api/openapi.yaml", handlers.OpenAPI)

	var handler http.Handler = mux
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
		// Ближе всего к mux, чтобы видеть r.Pattern
		handler = metrics.HTTPMiddleware(d.Metrics.MeterProvider(), d.Metrics.Namespace())(handler)
	}

	// Порядок снаружи внутрь: recovery, request id, logging
	handler = middleware.LoggingWithSkip(d.Logger, []string{"/api/health", "/metrics"})(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(d.Logger)(handler)

	return handler
}

// Server wraps http.Server with the service timeouts
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a server listening on addr
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
