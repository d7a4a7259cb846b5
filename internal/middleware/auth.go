package middleware

import (
	"net/http"

	"github.com/s/elearner/internal/apperr"
	"github.com/s/elearner/internal/handlers"
)

var errLogin = apperr.New(apperr.CodeUnauthenticated, "login required")

// RequireAuth rejects requests without a logged in user with 401.
func RequireAuth(h *handlers.Handler) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if _, ok := h.GetAuthenticatedUserID(r); !ok {
				h.WriteError(w, r, errLogin)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}

// RequiredRole lets through only users whose RoleID matches. Anonymous
// callers get 401, everyone else 403.
func RequiredRole(h *handlers.Handler, requiredRoleID uint) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			roleID, userID := h.GetUserRoleID(r)
			if userID == 0 {
				h.WriteError(w, r, errLogin)
				return
			}

			if roleID != requiredRoleID {
				h.Log.Warn("access denied", "user_id", userID, "role_id", roleID, "path", r.URL.Path)
				handlers.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

// CORS allows browser clients from any origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
