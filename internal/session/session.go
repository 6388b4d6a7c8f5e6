// Package session holds the client's bearer token and the authenticated flag
// derived from it.
//
// There is exactly one writer: Login and Logout (and Restore at start-up).
// Everything else reads the current Status or subscribes to changes. The
// store never validates a restored token with the server; the first API call
// that gets a 401 reports it through HandleUnauthorized.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/state"
)

const (
	MsgLoginFieldsRequired    = "Both fields are required to log in."
	MsgRegisterFieldsRequired = "Please fill in all fields!"
	MsgPasswordTooShort       = "Password must be at least 8 characters long!"
	MsgRegistered             = "User registered successfully"
	MsgLoggedIn               = "Login successful"

	minPasswordLength = 8
)

// Status is the observable state of the session.
type Status struct {
	Token         string
	Authenticated bool
	// Loading is true until the persisted token has been read.
	Loading bool
}

// Result is the outcome of Login or Register. Message is always suitable for
// showing to the user.
type Result struct {
	OK      bool
	Message string
}

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*apiclient.TokenResponse, error)
	Signup(ctx context.Context, username, email, password string) error
}

type Store struct {
	api    Authenticator
	tokens TokenStore
	logger *slog.Logger
	status *state.Cell[Status]
}

// New creates a Store and restores any persisted token.
func New(api Authenticator, tokens TokenStore, logger *slog.Logger) *Store {
	s := &Store{
		api:    api,
		tokens: tokens,
		logger: logger,
		status: state.NewCell(Status{Loading: true}),
	}
	s.Restore()
	return s
}

// Restore loads the persisted token. A present token marks the session
// authenticated without asking the server.
func (s *Store) Restore() {
	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("could not restore session", slog.String("error", err.Error()))
		token = ""
	}
	s.status.Set(Status{Token: token, Authenticated: token != ""})
}

func (s *Store) Status() Status { return s.status.Get() }

func (s *Store) Token() string { return s.status.Get().Token }

func (s *Store) Authenticated() bool { return s.status.Get().Authenticated }

func (s *Store) Loading() bool { return s.status.Get().Loading }

// Subscribe calls fn after every session change.
func (s *Store) Subscribe(fn func(Status)) (unsubscribe func()) {
	return s.status.Subscribe(fn)
}

// Login authenticates with the API. On failure the stored token is left as
// it was.
func (s *Store) Login(ctx context.Context, username, password string) Result {
	if username == "" || password == "" {
		return Result{Message: MsgLoginFieldsRequired}
	}

	res, err := s.api.Login(ctx, strings.ToLower(username), password)
	if err != nil {
		return Result{Message: s.failure("login", err)}
	}

	if err := s.tokens.Save(res.Token); err != nil {
		// The session still works for this process.
		s.logger.Warn("could not persist session", slog.String("error", err.Error()))
	}
	s.status.Set(Status{Token: res.Token, Authenticated: true})
	return Result{OK: true, Message: MsgLoggedIn}
}

// LoginWithToken adopts a token obtained elsewhere, e.g. from the GitHub
// login callback. Like a restored token it is not checked with the server.
func (s *Store) LoginWithToken(token string) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Message: MsgLoginFieldsRequired}
	}
	if err := s.tokens.Save(token); err != nil {
		s.logger.Warn("could not persist session", slog.String("error", err.Error()))
	}
	s.status.Set(Status{Token: token, Authenticated: true})
	return Result{OK: true, Message: MsgLoggedIn}
}

// Register creates an account. It never logs in; the caller does that next.
func (s *Store) Register(ctx context.Context, username, email, password string) Result {
	if username == "" || email == "" || password == "" {
		return Result{Message: MsgRegisterFieldsRequired}
	}
	if len(password) < minPasswordLength {
		return Result{Message: MsgPasswordTooShort}
	}

	err := s.api.Signup(ctx, strings.ToLower(username), strings.ToLower(email), password)
	if err != nil {
		return Result{Message: s.failure("register", err)}
	}
	return Result{OK: true, Message: MsgRegistered}
}

// Logout forgets the token. It makes no network call.
func (s *Store) Logout() {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("could not clear persisted session", slog.String("error", err.Error()))
	}
	s.status.Set(Status{})
}

// HandleUnauthorized logs out when err is a 401 from the API and reports
// whether it did.
func (s *Store) HandleUnauthorized(err error) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}
	s.logger.Info("session rejected by server, logging out")
	s.Logout()
	return true
}

func (s *Store) failure(op string, err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	s.logger.Error(op+" failed", slog.String("error", err.Error()))
	return "Could not reach the server. Please try again."
}
