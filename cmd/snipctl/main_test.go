package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/apitest"
	"github.com/sakif/snippet-vault/internal/executor"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/session"
)

type cli struct {
	api      *apitest.Server
	tokenDir string
	env      map[string]string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	api := apitest.New(t)
	dir := t.TempDir()
	return &cli{
		api:      api,
		tokenDir: dir,
		env: map[string]string{
			"SNIPCTL_API_URL":   api.URL,
			"SNIPCTL_TOKEN_DIR": dir,
			"SNIPCTL_LOG_LEVEL": "error",
		},
	}
}

// run executes snipctl with args and returns stdout and the error.
func (c *cli) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(envconfig.MapLookuper(c.env))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) login(t *testing.T, username string) {
	t.Helper()
	token := c.api.Account(t, username)
	require.NoError(t, (&session.FileTokenStore{Dir: c.tokenDir}).Save(token))
}

func TestRegisterLoginLogout(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "", "register", "-u", "Ada", "-e", "ADA@example.com", "-p", "password1", "--confirm", "password1")
	require.NoError(t, err)
	assert.Contains(t, out, "User registered successfully")

	_, err = c.run(t, "wrong-pass\n", "login", "-u", "ada")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	out, err = c.run(t, "password1\n", "login", "-u", "ADA")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")

	raw, err := os.ReadFile(filepath.Join(c.tokenDir, session.TokenKey))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	out, err = c.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada")

	_, err = c.run(t, "", "logout")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.tokenDir, session.TokenKey))
	assert.True(t, os.IsNotExist(err))

	_, err = c.run(t, "", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "", "register", "-u", "a", "-e", "a@b.co", "-p", "password1", "--confirm", "password2")
	require.Error(t, err)
	assert.Equal(t, msgPasswordMismatch, err.Error())
}

func TestAddListUpdateDelete(t *testing.T) {
	c := newCLI(t)
	c.login(t, "ada")

	src := filepath.Join(t.TempDir(), "sort.py")
	require.NoError(t, os.WriteFile(src, []byte("print(sorted([3,1,2]))"), 0o600))

	out, err := c.run(t, "", "add", "-t", "Bubble Sort", "-l", "python", "--usecase", "sorting demo", "-f", src,
		"--tag", "Sorting", "--tag", "a", "--tag", "b", "--tag", "c", "--tag", "e")
	require.NoError(t, err)
	assert.Contains(t, out, "Only a maximum of 4 tags are allowed")
	assert.Contains(t, out, "Successfully created a new code snippet!")

	token, _ := (&session.FileTokenStore{Dir: c.tokenDir}).Load()
	c.api.Snippet(t, token, "HTTP Server", model.Go, "web")

	out, err = c.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Bubble Sort")
	assert.Contains(t, out, "HTTP Server")
	assert.Contains(t, out, "2 snippets")

	out, err = c.run(t, "", "list", "--tag", "sorting", "--tag", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "Bubble Sort")
	assert.NotContains(t, out, "HTTP Server")
	assert.Contains(t, out, "1 found")

	list, err := c.api.Client.ListSnippets(context.Background(), token)
	require.NoError(t, err)
	var id string
	for _, s := range list {
		if s.Title == "Bubble Sort" {
			id = s.ID
			assert.Equal(t, []string{"sorting", "a", "b", "c"}, s.Tags)
		}
	}
	require.NotEmpty(t, id)

	out, err = c.run(t, "", "update", id, "-t", "Quick Sort", "--remove-tag", "a", "--remove-tag", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully updated the code snippet!")

	out, err = c.run(t, "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Quick Sort")
	assert.Contains(t, out, "print(sorted([3,1,2]))")
	assert.Contains(t, out, "#sorting")
	assert.NotContains(t, out, "#a ")

	out, err = c.run(t, "", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Snippet deleted successfully.")

	_, err = c.run(t, "", "delete", id)
	require.Error(t, err)
	assert.Equal(t, "Snippet not found.", err.Error())
}

func TestAdd_IncompleteMakesNoRequest(t *testing.T) {
	c := newCLI(t)
	c.login(t, "ada")

	_, err := c.run(t, "", "add", "-t", "Bubble Sort", "-l", "Python", "--usecase", "sorting demo", "--code", "...")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please fill in all fields!")

	out, err := c.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0 snippets")
}

func TestDelete_NotOwner(t *testing.T) {
	c := newCLI(t)
	alice := c.api.Account(t, "alice")
	s := c.api.Snippet(t, alice, "Mine", model.Go, "go")
	c.login(t, "bob")

	_, err := c.run(t, "", "delete", s.ID)
	require.Error(t, err)
	assert.Equal(t, "Unauthorized to delete this snippet.", err.Error())

	// Still logged in.
	_, err = c.run(t, "", "list")
	assert.NoError(t, err)
}

func TestList_OpenReturnsToFilteredList(t *testing.T) {
	c := newCLI(t)
	c.login(t, "ada")
	token, _ := (&session.FileTokenStore{Dir: c.tokenDir}).Load()
	c.api.Snippet(t, token, "Bubble Sort", model.Python, "sorting")
	merge := c.api.Snippet(t, token, "Merge Sort", model.Go, "sorting")
	c.api.Snippet(t, token, "HTTP Server", model.Go, "web")

	out, err := c.run(t, "", "list", "-l", "go", "--tag", "sorting", "--open", merge.ID)
	require.NoError(t, err)

	assert.Contains(t, out, "1 found")
	assert.Contains(t, out, "id "+merge.ID)
	assert.Contains(t, out, "back to list: 1 found")
}

func TestExpiredTokenLogsOut(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, (&session.FileTokenStore{Dir: c.tokenDir}).Save("expired"))

	_, err := c.run(t, "", "list")
	assert.ErrorIs(t, err, errSessionExpired)

	_, err = os.Stat(filepath.Join(c.tokenDir, session.TokenKey))
	assert.True(t, os.IsNotExist(err), "token cleared")
}

func TestList_UnknownLanguage(t *testing.T) {
	c := newCLI(t)
	c.login(t, "ada")
	_, err := c.run(t, "", "list", "-l", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestRun_LocalFileAgainstRunner(t *testing.T) {
	runnerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req executor.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(executor.Result{Run: executor.Stage{Output: req.Language + ":" + req.Stdin}})
	}))
	defer runnerSrv.Close()

	c := newCLI(t)
	c.env["SNIPCTL_RUNNER_URL"] = runnerSrv.URL
	c.login(t, "ada")

	out, err := c.run(t, "int main(){}", "run", "-l", "c++", "-f", "-", "--stdin", "42")
	require.NoError(t, err)
	assert.Equal(t, "cpp:42\n", out)

	_, err = c.run(t, "", "run")
	assert.Error(t, err)
}

func TestRun_LocalFileNeedsLogin(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "print(1)", "run", "-l", "python", "-f", "-")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestRun_RejectedTokenLogsOut(t *testing.T) {
	runnerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Invalid token"}`))
	}))
	defer runnerSrv.Close()

	c := newCLI(t)
	c.env["SNIPCTL_RUNNER_URL"] = runnerSrv.URL
	require.NoError(t, (&session.FileTokenStore{Dir: c.tokenDir}).Save("expired"))

	_, err := c.run(t, "print(1)", "run", "-l", "python", "-f", "-")
	assert.ErrorIs(t, err, errSessionExpired)

	_, err = os.Stat(filepath.Join(c.tokenDir, session.TokenKey))
	assert.True(t, os.IsNotExist(err), "token cleared")
}

func TestRun_SavedSnippetUnavailableRunner(t *testing.T) {
	c := newCLI(t)
	c.login(t, "ada")
	token, _ := (&session.FileTokenStore{Dir: c.tokenDir}).Load()
	s := c.api.Snippet(t, token, "Hello", model.Python, "demo")

	// The test API has no executor, so /api/execute is not mounted.
	_, err := c.run(t, "", "run", s.ID)
	require.Error(t, err)
	assert.Equal(t, "An error occurred while executing your code. Please try again.", err.Error())
}

func TestFlagsOverrideEnv(t *testing.T) {
	c := newCLI(t)
	c.env["SNIPCTL_API_URL"] = "http://127.0.0.1:1"
	c.login(t, "ada")

	_, err := c.run(t, "", "--api", c.api.URL, "list")
	assert.NoError(t, err)
}

func TestLanguages(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "C++")
	assert.Contains(t, out, "Rust")
}
