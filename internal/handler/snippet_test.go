package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/handler"
	"github.com/sakif/snippet-vault/internal/model"
)

func createSnippet(t *testing.T, api *testAPI, token string) model.Snippet {
	t.Helper()
	rr := api.do(t, http.MethodPost, "/api/create-snippet", token, snippetBody())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var s model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
	return s
}

func TestSnippets_RequireToken(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/api/snippets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "No token provided", decodeError(t, rr).Message)

	rr = api.do(t, http.MethodGet, "/api/snippets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", decodeError(t, rr).Message)
}

func TestCreateAndList(t *testing.T) {
	api := newTestAPI(t)
	token := api.signupAndLogin(t, "alice")

	created := createSnippet(t, api, token)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.Python, created.Language)
	assert.NotEmpty(t, created.CreatedBy)

	rr := api.do(t, http.MethodGet, "/api/snippets", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []model.Snippet
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// The raw body uses the wire field names clients expect.
	rr = api.do(t, http.MethodGet, "/api/snippets/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"_id":"`+created.ID+`"`)
}

func TestList_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t)
	token := api.signupAndLogin(t, "empty")

	rr := api.do(t, http.MethodGet, "/api/snippets", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestList_OnlyOwnSnippets(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signupAndLogin(t, "alice")
	bob := api.signupAndLogin(t, "bob")
	createSnippet(t, api, alice)

	rr := api.do(t, http.MethodGet, "/api/snippets", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestCreate_Rejections(t *testing.T) {
	api := newTestAPI(t)
	token := api.signupAndLogin(t, "alice")

	missingTitle := snippetBody()
	delete(missingTitle, "title")
	nullTags := snippetBody()
	nullTags["tags"] = nil
	tooManyTags := snippetBody()
	tooManyTags["tags"] = []string{"a", "b", "c", "d", "e"}
	badLanguage := snippetBody()
	badLanguage["language"] = "COBOL"

	tests := []struct {
		name        string
		body        any
		wantMessage string
	}{
		{"missing title", missingTitle, "All fields are required and tags must be an array."},
		{"null tags", nullTags, "All fields are required and tags must be an array."},
		{"too many tags", tooManyTags, "tags must be at most 4"},
		{"unsupported language", badLanguage, "language is not supported"},
		{"tags not an array", `{"title":"t","language":"Go","code":"c","usecase":"u","tags":"x"}`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/api/create-snippet", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantMessage, decodeError(t, rr).Message)
		})
	}
}

func TestUpdate(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signupAndLogin(t, "alice")
	bob := api.signupAndLogin(t, "bob")
	created := createSnippet(t, api, alice)

	body := snippetBody()
	body["title"] = "Renamed"

	t.Run("owner", func(t *testing.T) {
		rr := api.do(t, http.MethodPut, "/api/update-snippet/"+created.ID, alice, body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated model.Snippet
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, created.CreatedBy, updated.CreatedBy)
	})

	t.Run("other user", func(t *testing.T) {
		rr := api.do(t, http.MethodPut, "/api/update-snippet/"+created.ID, bob, body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Unauthorized to update this snippet.", decodeError(t, rr).Message)
	})

	t.Run("missing snippet", func(t *testing.T) {
		rr := api.do(t, http.MethodPut, "/api/update-snippet/nope", alice, body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Snippet not found.", decodeError(t, rr).Message)
	})
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signupAndLogin(t, "alice")
	bob := api.signupAndLogin(t, "bob")
	created := createSnippet(t, api, alice)

	rr := api.do(t, http.MethodDelete, "/api/snippets/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Unauthorized to delete this snippet.", decodeError(t, rr).Message)

	rr = api.do(t, http.MethodDelete, "/api/snippets/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var msg handler.MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
	assert.Equal(t, "Snippet deleted successfully.", msg.Message)

	rr = api.do(t, http.MethodDelete, "/api/snippets/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Snippet not found.", decodeError(t, rr).Message)
}
