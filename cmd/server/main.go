// Package main is the entry point for the snippet-vault API server.
//
// The main package is kept minimal. Its job is to:
//  1. Read configuration (environment variables, via internal/config)
//  2. Create dependencies (logger, store, executor)
//  3. Start the server and release resources once it stops
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/executor"
	"github.com/sakif/snippet-vault/internal/executor/docker"
	"github.com/sakif/snippet-vault/internal/executor/piston"
	mongoRepo "github.com/sakif/snippet-vault/internal/repository/mongo"
	sqliteRepo "github.com/sakif/snippet-vault/internal/repository/sqlite"
	"github.com/sakif/snippet-vault/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// === 1. CONFIGURATION ===
	cfg, err := config.LoadServer(ctx)
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	// Level comes from LOG_LEVEL (debug, info, warn, error).
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// === 3. STORE ===
	deps, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// === 4. EXECUTOR ===
	// The server starts without an executor; /api/execute is then unmounted.
	exec, closeExec := openExecutor(cfg, logger)
	defer closeExec()
	deps.Executor = exec

	// === 5. SERVE ===
	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	return srv.Start()
}

func openStore(ctx context.Context, cfg *config.Server, logger *slog.Logger) (server.Deps, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		store, err := mongoRepo.Connect(ctx, mongoRepo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return server.Deps{}, nil, fmt.Errorf("connecting to MongoDB: %w", err)
		}
		logger.Info("using MongoDB store", slog.String("database", cfg.Mongo.Database))
		return server.Deps{
			Snippets: store.Snippets,
			Users:    store.Users,
			Ping:     store.Ping,
		}, closer(logger, "mongo", store), nil

	default:
		// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return server.Deps{}, nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return server.Deps{}, nil, fmt.Errorf("opening database: %w", err)
		}
		logger.Info("using SQLite store", slog.String("path", cfg.DBPath))
		return server.Deps{
			Snippets: db,
			Users:    db.Users(),
			Ping:     db.Ping,
		}, closer(logger, "sqlite", db), nil
	}
}

func openExecutor(cfg *config.Server, logger *slog.Logger) (executor.Executor, func()) {
	switch cfg.Executor {
	case config.ExecutorPiston:
		logger.Info("forwarding executions to Piston", slog.String("url", cfg.PistonURL))
		return piston.New(cfg.PistonURL, 30*time.Second, logger), func() {}

	case config.ExecutorDocker:
		exec, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker executor unavailable, /api/execute will not be served",
				slog.String("error", err.Error()),
			)
			return nil, func() {}
		}
		return exec, closer(logger, "docker", exec)

	default:
		return nil, func() {}
	}
}

func closer(logger *slog.Logger, name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("close failed", slog.String("resource", name), slog.String("error", err.Error()))
		}
	}
}
