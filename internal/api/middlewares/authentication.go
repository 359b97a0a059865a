package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/talx-hub/gopher-points/internal/model"
	"github.com/talx-hub/gopher-points/internal/utils/auth"
)

func Authentication(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authFunc := func(w http.ResponseWriter, r *http.Request) {
			jwtCookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"failed to find token in request",
				)
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			tokenStr := jwtCookie.Value
			claims, err := auth.CheckToken(tokenStr, secret)
			if err != nil {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"authentication failed",
					slog.Any(model.KeyLoggerError, err),
				)
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			idCtx := context.WithValue(
				r.Context(), model.KeyContextUserID, claims.UserID)
			roleCtx := context.WithValue(
				idCtx, model.KeyContextRole, claims.Role)

			next.ServeHTTP(w, r.WithContext(roleCtx))
		}
		return http.HandlerFunc(authFunc)
	}
}

// RequireOperator gates operator-only paths; it must run after
// Authentication.
func RequireOperator(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		gate := func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(model.KeyContextRole).(string)
			if !ok || role != model.RoleOperator {
				log.LogAttrs(r.Context(),
					slog.LevelWarn,
					"operator path denied",
					slog.String("role", role),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "operator access required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(gate)
	}
}
