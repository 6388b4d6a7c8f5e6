package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/executor"
)

// ExecuteHandler handles code execution requests. The request and response
// bodies follow the Piston execute API.
type ExecuteHandler struct {
	exec   executor.Executor
	logger *slog.Logger
}

// NewExecuteHandler creates a new ExecuteHandler.
func NewExecuteHandler(exec executor.Executor, logger *slog.Logger) *ExecuteHandler {
	return &ExecuteHandler{
		exec:   exec,
		logger: logger,
	}
}

// HandleExecute runs the submitted program.
//
// HTTP: POST /api/execute
// Body: {"language":"python","version":"3.10.0","files":[{"name":"main","content":"..."}],"stdin":""}
//
// A program that fails to compile or exits non-zero is still a 200: the
// failure is in run.code and run.stderr.
func (h *ExecuteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req executor.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, apperror.ValidationFailed("files", err.Error()))
		return
	}

	h.logger.Info("executing code snippet",
		slog.String("language", req.Language),
		slog.String("version", req.Version),
	)

	result, err := h.exec.Execute(r.Context(), req)
	switch {
	case errors.Is(err, executor.ErrUnsupportedLanguage):
		writeError(w, apperror.ValidationFailed("language", req.Language+" runtime is unknown"))
		return
	case err != nil:
		h.logger.Error("code execution failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "execution_failed",
			Message: "Code execution is unavailable right now",
		})
		return
	}

	h.logger.Debug("execution finished",
		slog.Int("code", result.Run.Code),
		slog.Duration("duration", result.Duration),
	)
	writeJSON(w, http.StatusOK, result)
}
