// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, orchestrates
//	Repository (Data layer)  → reads/writes to SQLite or MongoDB
//
// The services take repository interfaces, never a concrete store. main.go
// decides which backend to inject; tests inject in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// User-facing messages. Clients show them verbatim.
const (
	MsgSnippetNotFound = "Snippet not found."
	MsgForbiddenUpdate = "Unauthorized to update this snippet."
	MsgForbiddenDelete = "Unauthorized to delete this snippet."
	MsgFieldsRequired  = "All fields are required and tags must be an array."
)

const (
	MaxTitleLength = 200
	MaxCodeLength  = 100000 // ~100KB of code
	maxTagLength   = 50
)

// SnippetInput carries the user-editable fields of a snippet. The owner and
// creation time are never part of the input: they come from the token and
// the clock.
type SnippetInput struct {
	Title    string
	Language model.Language
	Code     string
	Usecase  string
	Tags     []string
}

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates in and saves it as a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in SnippetInput) (*model.Snippet, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:     in.Title,
		Language:  in.Language,
		Code:      in.Code,
		Usecase:   in.Usecase,
		Tags:      in.Tags,
		CreatedBy: ownerID,
	}

	// The repo fills in ID and CreatedAt.
	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("owner", ownerID),
	)
	return snippet, nil
}

// ListByOwner returns every snippet ownerID created, newest first. A user
// with no snippets gets an empty, non-nil slice.
func (s *SnippetService) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	snippets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return snippets, nil
}

// Get returns one snippet. A snippet owned by someone else is reported as
// not found so IDs of other users' snippets are not confirmed.
func (s *SnippetService) Get(ctx context.Context, ownerID, id string) (*model.Snippet, error) {
	snippet, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.CreatedBy != ownerID {
		return nil, apperror.NotFound(MsgSnippetNotFound)
	}
	return snippet, nil
}

// Update replaces the editable fields of snippet id.
//
// ORDER OF CHECKS:
//  1. all fields present (400)
//  2. snippet exists (404)
//  3. caller is the owner of record (403)
//
// CreatedBy and CreatedAt are carried over from the stored copy untouched.
func (s *SnippetService) Update(ctx context.Context, ownerID, id string, in SnippetInput) (*model.Snippet, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	snippet, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.CreatedBy != ownerID {
		s.logger.Warn("update refused",
			slog.String("id", id),
			slog.String("caller", ownerID),
		)
		return nil, apperror.Forbidden(MsgForbiddenUpdate)
	}

	snippet.Title = in.Title
	snippet.Language = in.Language
	snippet.Code = in.Code
	snippet.Usecase = in.Usecase
	snippet.Tags = in.Tags

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

// Delete removes snippet id when ownerID is its owner of record.
func (s *SnippetService) Delete(ctx context.Context, ownerID, id string) error {
	snippet, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if snippet.CreatedBy != ownerID {
		s.logger.Warn("delete refused",
			slog.String("id", id),
			slog.String("caller", ownerID),
		)
		return apperror.Forbidden(MsgForbiddenDelete)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

func (s *SnippetService) fetch(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound(MsgSnippetNotFound)
	}
	// NotFound from the repository already carries MsgSnippetNotFound.
	return s.repo.GetByID(ctx, id)
}

// normalize trims the text fields, lowercases tags and enforces the field
// rules shared by create and update.
func normalize(in SnippetInput) (SnippetInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Usecase = strings.TrimSpace(in.Usecase)
	in.Language = model.Language(strings.TrimSpace(string(in.Language)))

	if in.Title == "" || in.Language == "" || strings.TrimSpace(in.Code) == "" || in.Usecase == "" || in.Tags == nil {
		return in, apperror.ValidationFailed("", MsgFieldsRequired)
	}
	if !in.Language.Valid() {
		return in, apperror.ValidationFailed("language", "language is not supported")
	}
	if len(in.Title) > MaxTitleLength {
		return in, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Code) > MaxCodeLength {
		return in, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if len(in.Tags) > model.MaxTags {
		return in, apperror.ValidationFailed("tags",
			fmt.Sprintf("a snippet can have at most %d tags", model.MaxTags))
	}

	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > maxTagLength {
			return in, apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", maxTagLength))
		}
		tags = append(tags, tag)
	}
	in.Tags = tags
	return in, nil
}
