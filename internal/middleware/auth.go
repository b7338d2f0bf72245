package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/ctxkeys"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/ui"
)

// UserResolver turns a bearer token into its user, or nil when the token is not usable.
type UserResolver interface {
	ResolveUser(token string) (*model.User, error)
}

// AuthMiddleware reads the Authorization header and adds the user to the context if valid.
// Requests without a usable token continue anonymously.
func AuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveUser(token)
			if err != nil {
				slog.Error("failed to resolve session", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			ui.RenderError(w, r, apperr.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireTrusted answers 404 to anyone without the trusted flag, so the route looks absent.
func RequireTrusted(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil || !user.IsTrusted {
			ui.RenderError(w, r, apperr.ErrNotFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}
