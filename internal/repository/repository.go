// Package repository declares the persistence contracts. Implementations live
// in sub-packages (sqlite, mongo) and are chosen at startup.
package repository

import (
	"context"

	"github.com/sakif/snippet-vault/internal/model"
)

// SnippetRepository stores snippets. GetByID, Update and Delete return an
// apperror.ErrNotFound error when no snippet has the given ID.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores accounts. Create returns an apperror.ErrConflict error
// when the username or email is already taken.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpsertGitHub(ctx context.Context, user *model.User) error
}
