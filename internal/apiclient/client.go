// Package apiclient is the HTTP client the command-line tools use to talk to
// the snippet API.
//
// Every non-2xx response becomes an *APIError carrying the status and the
// server's "message" field, so callers can tell the error kinds apart:
//
//	401 → the session is gone, log out and go to /login
//	403 → not the owner of record, show the message
//	404 → the snippet no longer exists, show the message
//	other → generic failure, not retried
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/snippet-vault/internal/model"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.Status == http.StatusForbidden }
func (e *APIError) IsNotFound() bool     { return e.Status == http.StatusNotFound }

// IsUnauthorized reports whether err is (or wraps) a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// errorBody matches the {"error":"...","message":"..."} shape of every API
// error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SnippetInput is the body of create and update requests.
type SnippetInput struct {
	Title    string         `json:"title"`
	Language model.Language `json:"language"`
	Code     string         `json:"code"`
	Usecase  string         `json:"usecase"`
	Tags     []string       `json:"tags"`
}

type Client struct {
	http *resty.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out)
	if err := send(req, http.MethodPost, "/api/auth/login"); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "Login response did not include a token"}
	}
	return &out, nil
}

// Signup registers an account. It does not log in.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "email": email, "password": password})
	return send(req, http.MethodPost, "/api/auth/signup")
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var out model.User
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetResult(&out)
	if err := send(req, http.MethodGet, "/api/me"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSnippets returns every snippet owned by the token's user, newest first.
func (c *Client) ListSnippets(ctx context.Context, token string) ([]model.Snippet, error) {
	var out []model.Snippet
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetResult(&out)
	if err := send(req, http.MethodGet, "/api/snippets"); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Snippet{}
	}
	return out, nil
}

func (c *Client) GetSnippet(ctx context.Context, token, id string) (*model.Snippet, error) {
	var out model.Snippet
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetPathParam("id", id).SetResult(&out)
	if err := send(req, http.MethodGet, "/api/snippets/{id}"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSnippet(ctx context.Context, token string, in SnippetInput) (*model.Snippet, error) {
	var out model.Snippet
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetBody(in).SetResult(&out)
	if err := send(req, http.MethodPost, "/api/create-snippet"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSnippet(ctx context.Context, token, id string, in SnippetInput) (*model.Snippet, error) {
	var out model.Snippet
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetPathParam("id", id).SetBody(in).SetResult(&out)
	if err := send(req, http.MethodPut, "/api/update-snippet/{id}"); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSnippet deletes a snippet and returns the server's confirmation
// message.
func (c *Client) DeleteSnippet(ctx context.Context, token, id string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	req := c.http.R().SetContext(ctx).SetAuthToken(token).SetPathParam("id", id).SetResult(&out)
	if err := send(req, http.MethodDelete, "/api/snippets/{id}"); err != nil {
		return "", err
	}
	return out.Message, nil
}

// send executes req and turns transport failures and non-2xx statuses into
// errors.
func send(req *resty.Request, method, path string) error {
	req.SetError(&errorBody{})

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := ""
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		msg = body.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", resp.StatusCode())
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}
