// Package apitest runs the real snippet API on an in-memory SQLite database
// behind an httptest.Server. Client-side packages use it in their tests.
package apitest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/model"
	sqliteRepo "github.com/sakif/snippet-vault/internal/repository/sqlite"
	"github.com/sakif/snippet-vault/internal/server"
)

// Password is the password every account created by Account uses.
const Password = "correct-horse"

type Server struct {
	URL    string
	Client *apiclient.Client
}

// New starts a server and registers its cleanup with t.
func New(t testing.TB) *Server {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)

	cfg := &config.Server{
		Port:         8080,
		Store:        config.StoreSQLite,
		JWTSecret:    "apitest-secret-0123456789abcdef",
		TokenTTL:     time.Hour,
		Executor:     config.ExecutorNone,
		ExecuteRate:  10,
		ExecuteBurst: 10,
	}
	srv, err := server.New(cfg, server.Deps{
		Snippets:  db,
		Users:     db.Users(),
		Passwords: auth.NewPasswordServiceForTest(4),
		Ping:      db.Ping,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		db.Close()
	})

	return &Server{URL: ts.URL, Client: apiclient.New(ts.URL, 5*time.Second)}
}

// Account registers username and returns a bearer token for it.
func (s *Server) Account(t testing.TB, username string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Client.Signup(ctx, username, username+"@example.com", Password))
	res, err := s.Client.Login(ctx, username, Password)
	require.NoError(t, err)
	return res.Token
}

// Snippet creates a snippet owned by token's user.
func (s *Server) Snippet(t testing.TB, token, title string, lang model.Language, tags ...string) model.Snippet {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	created, err := s.Client.CreateSnippet(context.Background(), token, apiclient.SnippetInput{
		Title:    title,
		Language: lang,
		Code:     "print('" + title + "')",
		Usecase:  title + " demo",
		Tags:     tags,
	})
	require.NoError(t, err)
	return *created
}
