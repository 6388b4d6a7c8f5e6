package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
)

// =========================================================================
// CREATE
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	u := createTestUser(t, db, "ada")

	if u.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ada")

	err := db.Users().Create(context.Background(), &model.User{Username: "ada", Email: "other@example.com"})

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if appErr.Field != "username" {
		t.Errorf("Field = %q, want %q", appErr.Field, "username")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ada")

	err := db.Users().Create(context.Background(), &model.User{Username: "ada2", Email: "ada@example.com"})

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if appErr.Field != "email" {
		t.Errorf("Field = %q, want %q", appErr.Field, "email")
	}
}

func TestUserCreate_EmptyEmailsDoNotConflict(t *testing.T) {
	db := newTestDB(t)

	for _, name := range []string{"gh-one", "gh-two"} {
		if err := db.Users().Create(context.Background(), &model.User{Username: name}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
}

// =========================================================================
// LOOKUPS
// =========================================================================

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ada")

	found, err := db.Users().GetByUsername(context.Background(), "ada")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "hash")
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetUserByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// GITHUB UPSERT
// =========================================================================

func TestUserUpsertGitHub_NewThenExisting(t *testing.T) {
	db := newTestDB(t)

	first := &model.User{Username: "octocat", Email: "old@example.com", GitHubID: 583231}
	if err := db.Users().UpsertGitHub(context.Background(), first); err != nil {
		t.Fatalf("UpsertGitHub() (new) error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("UpsertGitHub() did not set ID for new user")
	}

	second := &model.User{Username: "renamed", Email: "new@example.com", GitHubID: 583231}
	if err := db.Users().UpsertGitHub(context.Background(), second); err != nil {
		t.Fatalf("UpsertGitHub() (existing) error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("ID changed on re-login: %q → %q", first.ID, second.ID)
	}
	if second.Username != "octocat" {
		t.Errorf("Username = %q, existing username must be kept", second.Username)
	}
	if second.Email != "new@example.com" {
		t.Errorf("Email = %q, want refreshed email", second.Email)
	}
}
