package server

import (
	"context"
	"errors"
	"net/http"

	"shopapp/internal/auth"
)

type ctxKey string

const userContextKey ctxKey = "user"

// requireSession authenticates the request from the session cookie and
// attaches the user record to the context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.SessionCookie(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized access, token not found")
			return
		}

		userID, err := auth.UserIDFromToken(token, []byte(s.Config.JWTSecret))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized access, invalid token")
			return
		}

		user, err := s.Users.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "Unauthorized access, user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden, admin access only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) *auth.User {
	if user, ok := ctx.Value(userContextKey).(*auth.User); ok {
		return user
	}
	return nil
}
