// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and owns the graceful shutdown. It never opens a store itself;
// main.go picks the backend (SQLite or MongoDB) and the executor and passes
// them in as Deps.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go:     config → store → executor → server.New
//	server.New:  store → services → handlers → routes
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/executor"
	"github.com/sakif/snippet-vault/internal/handler"
	"github.com/sakif/snippet-vault/internal/metrics"
	"github.com/sakif/snippet-vault/internal/middleware"
	"github.com/sakif/snippet-vault/internal/repository"
	"github.com/sakif/snippet-vault/internal/service"
)

// Deps are the collaborators the server is built on.
type Deps struct {
	Snippets repository.SnippetRepository
	Users    repository.UserRepository
	// Executor serves /api/execute. Nil leaves the route unmounted.
	Executor executor.Executor
	// Passwords defaults to bcrypt at the production cost.
	Passwords *auth.PasswordService
	// Ping reports store health for /healthz. Optional.
	Ping func(ctx context.Context) error
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router  *chi.Mux
	config  *config.Server
	deps    Deps
	logger  *slog.Logger
	metrics *metrics.Metrics
	tokens  *auth.TokenService
}

// New creates a Server and wires every route.
func New(cfg *config.Server, deps Deps, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		deps:    deps,
		logger:  logger,
		metrics: metrics.New(),
		tokens:  tokens,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/auth/signup          → create account
// POST   /api/auth/login           → password login, returns bearer token
// GET    /auth/github/login        → GitHub OAuth redirect      (if configured)
// GET    /auth/github/callback     → GitHub OAuth completion    (if configured)
// GET    /api/me                   → caller profile             [auth]
// GET    /api/snippets             → caller's snippets          [auth]
// GET    /api/snippets/{id}        → one snippet                [auth]
// POST   /api/create-snippet       → create snippet             [auth]
// PUT    /api/update-snippet/{id}  → update snippet             [auth]
// DELETE /api/snippets/{id}        → delete snippet             [auth]
// POST   /api/execute              → run code (rate limited)    (if executor)
// GET    /metrics                  → Prometheus exposition
// GET    /healthz                  → liveness + store ping
//
// MIDDLEWARE ORDER MATTERS:
// RequestID → RealIP → Recoverer → Metrics → Logger. RealIP must precede the
// rate limiter so clients behind a proxy get separate buckets.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(s.metrics))
	r.Use(middleware.Logger(s.logger))

	authService := service.NewAuthService(s.deps.Users, s.tokens, s.deps.Passwords, s.logger)
	snippetService := service.NewSnippetService(s.deps.Snippets, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	if github != nil {
		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub login disabled (GITHUB_CLIENT_ID not set)")
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGet)
			r.Post("/create-snippet", snippetHandler.HandleCreate)
			r.Put("/update-snippet/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
		})

		if s.deps.Executor != nil {
			limiter := middleware.NewRateLimiter(s.config.ExecuteRate, s.config.ExecuteBurst, s.metrics)
			executeHandler := handler.NewExecuteHandler(s.metrics.Instrument(s.deps.Executor), s.logger)
			r.With(limiter.Middleware).Post("/execute", executeHandler.HandleExecute)
		} else {
			s.logger.Warn("no executor configured, /api/execute is unavailable")
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable\n"))
			return
		}
	}
	_, _ = w.Write([]byte("ok\n"))
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//
// Closing the store and the executor is the caller's job, after Start returns.
func (s *Server) Start() error {
	// WriteTimeout must outlast the slowest code execution.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.Store),
			slog.String("executor", s.config.Executor),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
