package middleware

import (
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jeremyjsx/journal/internal/apierror"
	"github.com/jeremyjsx/journal/internal/auth"
)

// Authenticate resolves a bearer token into the request's user. Requests
// without a valid token are rejected with 401.
func Authenticate(provider auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "missing bearer token")
				return
			}
			u, err := provider.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, apierror.CodeUnauthorized, "missing bearer token")
			return
		}
		if !u.IsAdmin() {
			writeError(w, r, http.StatusForbidden, apierror.CodeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func BearerToken(r *http.Request) string {
	const prefix = "bearer "
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	e := apierror.New(status, code, message)
	e.RequestID = chimw.GetReqID(r.Context())
	apierror.Write(w, e)
}
