package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/auth"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/service"
)

// SnippetHandler serves the snippet endpoints. Every route is mounted behind
// auth.RequireAuth, so the caller's user ID is always in the context; the
// handler passes it to the service, which enforces ownership.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// snippetRequest is the body of create and update. Tags must be a JSON array
// (possibly empty): a missing or null tags field is rejected.
type snippetRequest struct {
	Title    string   `json:"title"    validate:"required"`
	Language string   `json:"language" validate:"required"`
	Code     string   `json:"code"     validate:"required"`
	Usecase  string   `json:"usecase"  validate:"required"`
	Tags     []string `json:"tags"     validate:"required,max=4"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Title:    req.Title,
		Language: model.Language(req.Language),
		Code:     req.Code,
		Usecase:  req.Usecase,
		Tags:     req.Tags,
	}
}

// decodeSnippet decodes a snippet body. Missing fields are reported with
// the single message clients already know how to show.
func decodeSnippet(w http.ResponseWriter, r *http.Request) (snippetRequest, error) {
	var req snippetRequest
	err := decodeJSON(w, r, &req)
	if err == nil {
		return req, nil
	}
	var appErr *apperror.AppError
	tooManyTags := req.Tags != nil && len(req.Tags) > model.MaxTags
	if errors.As(err, &appErr) && appErr.Field != "" && !(appErr.Field == "tags" && tooManyTags) {
		return req, apperror.ValidationFailed(appErr.Field, service.MsgFieldsRequired)
	}
	return req, err
}

// HandleList returns the caller's snippets, newest first.
//
// HTTP: GET /api/snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.service.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns one of the caller's snippets.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate stores a new snippet owned by the caller.
//
// HTTP: POST /api/create-snippet
// Body: {"title","language","code","usecase","tags":[...]}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	req, err := decodeSnippet(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces the editable fields of a snippet the caller owns.
//
// HTTP: PUT /api/update-snippet/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	req, err := decodeSnippet(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet the caller owns.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Snippet deleted successfully."})
}
