// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Register accounts with a username, email and password
//   - Verify credentials and issue a bearer token
//   - Orchestrate the GitHub OAuth callback: upsert the user, issue a token

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// MsgInvalidCredentials is returned for an unknown username and for a wrong
// password alike, so a caller cannot probe which usernames exist.
const MsgInvalidCredentials = "Invalid credentials"

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued bearer token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a password account. Username and email are lowercased
// before they are stored, so "Alice" and "alice" are the same account.
//
// Register never issues a token: the caller logs in separately.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email is not a valid address")
	}

	hash, err := s.passwords.Hash(password)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	case errors.Is(err, auth.ErrPasswordTooLong):
		return nil, apperror.ValidationFailed("password", "password is too long")
	case err != nil:
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	// The repository reports a taken username or email as apperror.ErrConflict;
	// it passes through unchanged so the handler can answer 409.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies a username/password pair and issues a bearer token.
//
// Every credential failure (unknown user, GitHub-only account, wrong
// password) is reported as the same apperror.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %q: %w", username, err)
	}

	// Accounts created through GitHub have no password hash.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("username", username))
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	return s.issue(user)
}

// LoginWithGitHub handles the GitHub OAuth callback.
//
// After the handler exchanges the GitHub code for a GitHubUser profile, this
// method upserts the account keyed on the GitHub ID and issues the same kind
// of bearer token a password login would.
//
// WHAT THIS METHOD DOES NOT DO:
//   - It does NOT read HTTP requests or set cookies
//   - It is NOT tied to Chi or any routing framework
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Username: strings.ToLower(ghUser.Login),
		Email:    strings.ToLower(ghUser.Email),
	}

	// After this call user.ID is populated by the repository.
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("Invalid token")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
