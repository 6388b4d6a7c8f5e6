package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/config"
	"github.com/sakif/snippet-vault/internal/executor"
	sqliteRepo "github.com/sakif/snippet-vault/internal/repository/sqlite"
)

type echoExecutor struct{}

func (echoExecutor) Execute(_ context.Context, req executor.Request) (*executor.Result, error) {
	out := req.Source()
	return &executor.Result{Language: req.Language, Run: executor.Stage{Stdout: out, Output: out}}, nil
}

func testConfig() *config.Server {
	return &config.Server{
		Port:         8080,
		Store:        config.StoreSQLite,
		JWTSecret:    "server-test-secret-0123456789",
		TokenTTL:     time.Hour,
		Executor:     config.ExecutorNone,
		ExecuteRate:  1,
		ExecuteBurst: 2,
	}
}

func newTestServer(t *testing.T, exec executor.Executor, ping func(context.Context) error) http.Handler {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv, err := New(testConfig(), Deps{
		Snippets:  db,
		Users:     db.Users(),
		Executor:  exec,
		Passwords: auth.NewPasswordServiceForTest(4),
		Ping:      ping,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv.Handler()
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.RemoteAddr = "192.0.2.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew_RejectsWeakSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"

	_, err := New(cfg, Deps{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "").Code)

	down := newTestServer(t, nil, func(context.Context) error { return errors.New("no primary") })
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/healthz", "").Code)
}

func TestSignupLoginAndList(t *testing.T) {
	h := newTestServer(t, nil, nil)

	rr := serve(h, http.MethodPost, "/api/auth/signup", `{"username":"ada","email":"ada@example.com","password":"analytical"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = serve(h, http.MethodPost, "/api/auth/login", `{"username":"ADA","password":"analytical"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&login))

	req := httptest.NewRequest(http.MethodGet, "/api/snippets", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	list := httptest.NewRecorder()
	h.ServeHTTP(list, req)

	assert.Equal(t, http.StatusOK, list.Code)
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestGitHubRoutesOnlyWhenConfigured(t *testing.T) {
	h := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/auth/github/login", "").Code)
}

func TestExecute(t *testing.T) {
	body := `{"language":"python","version":"3.10.0","files":[{"name":"main","content":"print(1)"}]}`

	t.Run("unmounted without executor", func(t *testing.T) {
		h := newTestServer(t, nil, nil)
		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, "/api/execute", body).Code)
	})

	t.Run("rate limited after burst", func(t *testing.T) {
		h := newTestServer(t, echoExecutor{}, nil)

		first := serve(h, http.MethodPost, "/api/execute", body)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Contains(t, first.Body.String(), `"output":"print(1)"`)

		assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/execute", body).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "/api/execute", body).Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil, nil)
	serve(h, http.MethodGet, "/healthz", "")

	rr := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `snippet_vault_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
