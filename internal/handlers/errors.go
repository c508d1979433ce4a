package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jeremyjsx/journal/internal/apierror"
	"github.com/jeremyjsx/journal/internal/posts"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	e := apierror.New(status, code, message)
	e.Details = details
	apierror.Write(w, e)
}

// writePostError maps post service errors onto the API envelope. Only
// unexpected failures are logged at error level.
func writePostError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var verr *posts.ValidationError
	switch {
	case errors.Is(err, posts.ErrNotFound):
		writeError(w, http.StatusNotFound, apierror.CodeNotFound, "post not found", nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, apierror.CodeValidation, "validation failed", verr.Fields)
	case errors.Is(err, posts.ErrValidation):
		writeError(w, http.StatusBadRequest, apierror.CodeValidation, "validation failed", nil)
	case errors.Is(err, posts.ErrPersistence):
		logger.Warn(op+" rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, apierror.CodePersistence, "post could not be saved", nil)
	case errors.Is(err, posts.ErrReadDegraded):
		logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, apierror.CodeReadDegraded, "posts could not be loaded", nil)
	default:
		logger.Error(op+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, apierror.CodeInternal, "internal server error", nil)
	}
}
