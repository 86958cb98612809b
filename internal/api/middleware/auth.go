package middleware

import (
	"context"
	"net/http"

	"github.com/gemeenteweb/server/internal/api/respond"
	"github.com/gemeenteweb/server/internal/auth"
)

type contextKeyAuth string

const principalKey contextKeyAuth = "principal"

// RequireAuth validates the bearer token from the Authorization header and
// resolves the caller into a request-scoped Principal. It performs
// authentication only; authorization decisions belong to the policy
// predicates evaluated inside each handler.
func RequireAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", respond.ErrUnauthorized)
				return
			}

			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", err)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "Unauthorized", err)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ContextWithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated principal, failing closed: handlers
// must treat ok == false as 401 regardless of how the route was wired.
func PrincipalFrom(r *http.Request) (auth.Principal, bool) {
	if r == nil {
		return auth.Principal{}, false
	}
	p, ok := r.Context().Value(principalKey).(auth.Principal)
	if !ok || p.ID == "" {
		return auth.Principal{}, false
	}
	return p, true
}
