package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jeremyjsx/journal/internal/apierror"
	"github.com/jeremyjsx/journal/internal/auth"
	"github.com/jeremyjsx/journal/internal/middleware"
)

type AuthHandler struct {
	provider auth.Provider
	logger   *slog.Logger
}

func NewAuthHandler(provider auth.Provider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apierror.CodeBadRequest, "invalid JSON body", nil)
		return req, false
	}
	errs := make(map[string]string)
	if req.Email == "" {
		errs["email"] = "required"
	}
	if req.Password == "" {
		errs["password"] = "required"
	}
	if len(errs) > 0 {
		writeError(w, http.StatusBadRequest, apierror.CodeValidation, "validation failed", errs)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) SignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCredentials(w, r)
		if !ok {
			return
		}
		u, err := h.provider.SignUp(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidInput):
				writeError(w, http.StatusBadRequest, apierror.CodeValidation, err.Error(), nil)
			case errors.Is(err, auth.ErrEmailTaken):
				writeError(w, http.StatusConflict, apierror.CodeConflict, "email already registered", nil)
			default:
				h.logger.Error("sign up failed", "error", err)
				writeError(w, http.StatusInternalServerError, apierror.CodeInternal, "internal server error", nil)
			}
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func (h *AuthHandler) SignIn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCredentials(w, r)
		if !ok {
			return
		}
		tok, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "invalid email or password", nil)
				return
			}
			h.logger.Error("sign in failed", "error", err)
			writeError(w, http.StatusInternalServerError, apierror.CodeInternal, "internal server error", nil)
			return
		}
		writeJSON(w, http.StatusOK, tok)
	}
}

func (h *AuthHandler) SignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "missing bearer token", nil)
			return
		}
		if err := h.provider.SignOut(r.Context(), token); err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "invalid or expired token", nil)
				return
			}
			h.logger.Error("sign out failed", "error", err)
			writeError(w, http.StatusInternalServerError, apierror.CodeInternal, "internal server error", nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Me must be mounted behind middleware.Authenticate.
func (h *AuthHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "not signed in", nil)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
