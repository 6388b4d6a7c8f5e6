// Package config loads process configuration from environment variables.
//
// Both binaries read their settings through go-envconfig: the API server
// reads Server, the snipctl CLI reads Client. Defaults live in the struct tags
// so a bare `go run ./cmd/server` works on a laptop.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Executor backends. ExecutorNone starts the server without /api/execute.
const (
	ExecutorDocker = "docker"
	ExecutorPiston = "piston"
	ExecutorNone   = "none"
)

// Server is the API server configuration.
type Server struct {
	Port     int    `env:"PORT, default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Store  string `env:"STORE, default=sqlite"`
	DBPath string `env:"DB_PATH, default=data/snippets.db"`
	Mongo  Mongo

	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`

	GitHub GitHub

	Executor     string  `env:"EXECUTOR, default=docker"`
	PistonURL    string  `env:"PISTON_URL, default=https://emkc.org/api/v2/piston"`
	ExecuteRate  float64 `env:"EXECUTE_RATE, default=2"`
	ExecuteBurst int     `env:"EXECUTE_BURST, default=5"`
}

// Mongo holds the MongoDB connection settings used when STORE=mongo.
type Mongo struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB, default=snippet_vault"`
}

// GitHub holds the OAuth app credentials. The GitHub login routes are only
// mounted when ClientID is set.
type GitHub struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Enabled reports whether GitHub login is configured.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// LoadServer reads the server configuration from the process environment.
func LoadServer(ctx context.Context) (*Server, error) {
	return LoadServerFrom(ctx, envconfig.OsLookuper())
}

// LoadServerFrom reads the server configuration through l. Tests pass an
// envconfig.MapLookuper.
func LoadServerFrom(ctx context.Context, l envconfig.Lookuper) (*Server, error) {
	var cfg Server
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	return &cfg, nil
}

func (c *Server) validate() error {
	switch c.Store {
	case StoreSQLite, StoreMongo:
	default:
		return fmt.Errorf("config: STORE must be %q or %q, got %q", StoreSQLite, StoreMongo, c.Store)
	}
	switch c.Executor {
	case ExecutorDocker, ExecutorPiston, ExecutorNone:
	default:
		return fmt.Errorf("config: EXECUTOR must be docker, piston or none, got %q", c.Executor)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.ExecuteRate <= 0 {
		return fmt.Errorf("config: EXECUTE_RATE must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Server) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// Client is the snipctl configuration. Flags override these values.
type Client struct {
	APIURL    string        `env:"SNIPCTL_API_URL, default=http://localhost:8080"`
	RunnerURL string        `env:"SNIPCTL_RUNNER_URL"`
	TokenDir  string        `env:"SNIPCTL_TOKEN_DIR"`
	Timeout   time.Duration `env:"SNIPCTL_TIMEOUT, default=15s"`
	LogLevel  string        `env:"SNIPCTL_LOG_LEVEL, default=warn"`
}

// LoadClient reads the CLI configuration from the process environment.
func LoadClient(ctx context.Context) (*Client, error) {
	return LoadClientFrom(ctx, envconfig.OsLookuper())
}

// LoadClientFrom reads the CLI configuration through l.
func LoadClientFrom(ctx context.Context, l envconfig.Lookuper) (*Client, error) {
	var cfg Client
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.RunnerURL == "" {
		// The API server proxies execution requests.
		cfg.RunnerURL = cfg.APIURL + "/api/execute"
	}
	return &cfg, nil
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
