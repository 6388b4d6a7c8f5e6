package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/apitest"
	"github.com/sakif/snippet-vault/internal/model"
)

func TestLogin_BadCredentialsCarryServerMessage(t *testing.T) {
	api := apitest.New(t)
	api.Account(t, "ada")

	_, err := api.Client.Login(context.Background(), "ada", "wrong-password")
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestSignup_Duplicate(t *testing.T) {
	api := apitest.New(t)
	api.Account(t, "ada")

	err := api.Client.Signup(context.Background(), "ada", "other@example.com", apitest.Password)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
}

func TestSnippetLifecycle(t *testing.T) {
	api := apitest.New(t)
	ctx := context.Background()
	token := api.Account(t, "ada")

	created := api.Snippet(t, token, "Bubble Sort", model.Python, "sorting")
	assert.NotEmpty(t, created.ID)

	list, err := api.Client.ListSnippets(ctx, token)
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := api.Client.UpdateSnippet(ctx, token, created.ID, apiclient.SnippetInput{
		Title:    "Quick Sort",
		Language: model.Go,
		Code:     "package main",
		Usecase:  "sorting demo",
		Tags:     []string{"Sorting", "fast"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Quick Sort", updated.Title)
	assert.Equal(t, []string{"sorting", "fast"}, updated.Tags)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)

	got, err := api.Client.GetSnippet(ctx, token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quick Sort", got.Title)

	msg, err := api.Client.DeleteSnippet(ctx, token, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Snippet deleted successfully.", msg)

	list, err = api.Client.ListSnippets(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestErrorKinds(t *testing.T) {
	api := apitest.New(t)
	ctx := context.Background()
	alice := api.Account(t, "alice")
	bob := api.Account(t, "bob")
	s := api.Snippet(t, alice, "Mine", model.Go, "go")

	_, err := api.Client.DeleteSnippet(ctx, bob, s.ID)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsForbidden())
	assert.Equal(t, "Unauthorized to delete this snippet.", apiErr.Message)

	_, err = api.Client.DeleteSnippet(ctx, alice, "does-not-exist")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "Snippet not found.", apiErr.Message)

	_, err = api.Client.ListSnippets(ctx, "expired-token")
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.False(t, apiclient.IsUnauthorized(nil))
}

func TestNonJSONErrorFallsBackToStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := apiclient.New(ts.URL, time.Second).ListSnippets(context.Background(), "t")
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Request failed with status 502", apiErr.Message)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := apiclient.New(url, time.Second).ListSnippets(context.Background(), "t")
	require.Error(t, err)
	var apiErr *apiclient.APIError
	assert.False(t, errors.As(err, &apiErr))
}

