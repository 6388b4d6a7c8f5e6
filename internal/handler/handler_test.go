package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/handler"
	sqliteRepo "github.com/sakif/snippet-vault/internal/repository/sqlite"
	"github.com/sakif/snippet-vault/internal/service"
)

// testAPI wires the real services over an in-memory database behind the same
// routes the server mounts.
type testAPI struct {
	router http.Handler
	tokens *auth.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(db.Users(), tokens, auth.NewPasswordServiceForTest(4), logger)
	snippetSvc := service.NewSnippetService(db, logger)

	authHandler := handler.NewAuthHandler(authSvc, nil, logger)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/signup", authHandler.HandleSignup)
	r.Post("/api/auth/login", authHandler.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/me", authHandler.HandleMe)
		r.Get("/api/snippets", snippetHandler.HandleList)
		r.Get("/api/snippets/{id}", snippetHandler.HandleGet)
		r.Post("/api/create-snippet", snippetHandler.HandleCreate)
		r.Put("/api/update-snippet/{id}", snippetHandler.HandleUpdate)
		r.Delete("/api/snippets/{id}", snippetHandler.HandleDelete)
	})

	return &testAPI{router: r, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// signupAndLogin registers username and returns a bearer token for it.
func (a *testAPI) signupAndLogin(t *testing.T, username string) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username, "email": username + "@example.com", "password": "password-123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": "password-123",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp handler.TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func snippetBody() map[string]any {
	return map[string]any{
		"title":    "Hello",
		"language": "Python",
		"code":     "print('hi')",
		"usecase":  "Greeting",
		"tags":     []string{"basics"},
	}
}
